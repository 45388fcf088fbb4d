// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package fuzzutil turns a fuzzer's byte stream into a sequence of test
// steps. A ByteConsumer doles out the raw bytes, a step maker converts each
// chunk into an executable step, and Run drives the steps in order.
package fuzzutil

import (
	"encoding/binary"
	"math/rand"
)

type ByteConsumer struct {
	bytes []byte
}

func NewByteConsumer(bytes []byte) *ByteConsumer {
	return &ByteConsumer{
		bytes: bytes,
	}
}

func (c *ByteConsumer) Len() int {
	return len(c.bytes)
}

// Bytes consumes size bytes from the stream. When the stream runs dry the
// remainder is zero filled, so steps built near the end of the input are
// well formed but boring.
func (c *ByteConsumer) Bytes(size int) []byte {
	consumed := make([]byte, size)
	n := copy(consumed, c.bytes)
	c.bytes = c.bytes[n:]
	return consumed
}

func (c *ByteConsumer) Byte() byte {
	return c.Bytes(1)[0]
}

func (c *ByteConsumer) Uint16() uint16 {
	return binary.LittleEndian.Uint16(c.Bytes(2))
}

func (c *ByteConsumer) Uint32() uint32 {
	return binary.LittleEndian.Uint32(c.Bytes(4))
}

// A Step performs one mutation of the system under test and checks the
// result.
type Step func()

type TestRun struct {
	steps   []Step
	cleanup func()
}

func NewTestRun(bytes []byte, stepMaker func(*ByteConsumer) Step, cleanup func()) *TestRun {
	tr := &TestRun{
		cleanup: cleanup,
	}

	consumer := NewByteConsumer(bytes)
	for consumer.Len() > 0 {
		tr.steps = append(tr.steps, stepMaker(consumer))
	}
	return tr
}

func (t *TestRun) Run() {
	defer t.cleanup()
	for _, step := range t.steps {
		step()
	}
}

// MakeRandomTestCases builds a deterministic corpus of seed inputs of
// growing size.
func MakeRandomTestCases() [][]byte {
	r := rand.New(rand.NewSource(1))

	cases := [][]byte{{}}
	for _, size := range []int{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000} {
		bytes := make([]byte, size)
		r.Read(bytes)
		cases = append(cases, bytes)
	}
	return cases
}
