// Command native-lib builds the Android avatar colour library.
//
// Build with the jni tag as a C shared library, for example through the NDK:
//
//	CGO_ENABLED=1 GOOS=android GOARCH=arm64 CC=aarch64-linux-android21-clang \
//	    go build -tags jni -buildmode=c-shared -o libnative-lib.so ./cmd/native-lib
//
// On a desktop JDK point CGO_CFLAGS at $JAVA_HOME/include and its platform
// subdirectory so jni.h resolves.
package main

import (
	"github.com/redderi/avatar-colour/adapters/hasher"
	"github.com/redderi/avatar-colour/domain"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
)

var colours domain.ColourHasher = hasher.New()

// colourTriple is the JVM-independent half of the exported entry point.
// username is borrowed and must not escape.
func colourTriple(username []byte) ([3]float32, error) {
	c, err := colours.Hash(username)
	if err != nil {
		log.With(zap.Int("length", len(username))).Debug("Rejected username", zap.Error(err))
		return [3]float32{}, err
	}
	return c.Triple(), nil
}

// c-shared builds still require a main.
func main() {}
