// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFake(start)

	var fired []string
	clk.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	clk.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	clk.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	clk.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(3*time.Second), clk.Now())
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
}

func TestFake_Stop(t *testing.T) {
	clk := NewFake(time.Now())
	called := false
	timer := clk.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second Stop reports false")

	clk.Advance(2 * time.Second)
	assert.False(t, called)
}

func TestFake_RearmingCallback(t *testing.T) {
	clk := NewFake(time.Now())
	count := 0

	var tick func()
	tick = func() {
		count++
		clk.AfterFunc(time.Minute, tick)
	}
	clk.AfterFunc(time.Minute, tick)

	clk.Advance(3 * time.Minute)
	assert.Equal(t, 3, count)
}

func TestFake_BlockUntil(t *testing.T) {
	clk := NewFake(time.Now())

	go func() {
		time.Sleep(10 * time.Millisecond)
		clk.AfterFunc(time.Second, func() {})
	}()

	require.True(t, clk.BlockUntil(1, time.Second))
	assert.False(t, clk.BlockUntil(5, 20*time.Millisecond))
}
