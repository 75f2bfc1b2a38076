//go:build jni

package main

/*
#include <stdlib.h>
#include "jnienv.h"
*/
import "C"

import (
	"errors"
	"unsafe"
)

var (
	errNullString = errors.New("username is null")
	errAcquire    = errors.New("could not pin username")
)

// withUTFChars lends fn the modified UTF-8 bytes of s. The buffer is released
// on every return path and fn must not keep the slice.
func withUTFChars(env *C.JNIEnv, s C.jstring, fn func([]byte) error) error {
	if s == nil {
		return errNullString
	}

	chars := C.acquire_utf_chars(env, s)
	if chars == nil {
		// the JVM already has an OutOfMemoryError pending
		return errAcquire
	}
	defer C.release_utf_chars(env, s, chars)

	n := int(C.utf_length(env, s))
	return fn(unsafe.Slice((*byte)(unsafe.Pointer(chars)), n))
}

func throwIllegalArgument(env *C.JNIEnv, msg string) {
	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	C.throw_illegal_argument(env, cmsg)
}

//export Java_com_redderi_bookreader_pages_NativeColorGenerator_generateRandomColor
func Java_com_redderi_bookreader_pages_NativeColorGenerator_generateRandomColor(env *C.JNIEnv, thiz C.jobject, username C.jstring) C.jfloatArray {
	var rgb [3]float32
	err := withUTFChars(env, username, func(b []byte) error {
		var err error
		rgb, err = colourTriple(b)
		return err
	})

	switch {
	case errors.Is(err, errAcquire):
		return nil
	case err != nil:
		throwIllegalArgument(env, "InvalidInput: "+err.Error())
		return nil
	}

	return C.new_colour_array(env, C.jfloat(rgb[0]), C.jfloat(rgb[1]), C.jfloat(rgb[2]))
}
