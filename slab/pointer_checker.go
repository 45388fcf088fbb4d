// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package slab

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

func containsNoPointers[T any]() error {
	t := reflect.TypeFor[T]()
	paths := searchForPointers(t, "", nil)
	if len(paths) != 0 {
		return fmt.Errorf("found pointer(s): %s", strings.Join(paths, ","))
	}
	return nil
}

// searchForPointers walks t and collects a path for every pointer-bearing
// leaf it finds. A non-empty result disqualifies the type from living in
// pool memory.
func searchForPointers(t reflect.Type, path string, paths []string) []string {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		// Pointer free

	case reflect.Array:
		size := strconv.Itoa(t.Len())
		paths = searchForPointers(t.Elem(), path+"["+size+"]", paths)

	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			paths = searchForPointers(f.Type, path+"("+t.String()+")"+f.Name, paths)
		}

	default:
		// Chan, Func, Interface, Map, Pointer, Slice, String,
		// UnsafePointer and anything we don't recognise
		paths = append(paths, path+"<"+t.String()+">")
	}

	return paths
}
