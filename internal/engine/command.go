/*
 * This file is part of Marlin (https://github.com/marlinaudio/marlin).
 * Copyright (C) 2026 Marlin Audio
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package engine

import "sync"

// Command is a control message carried from the stream handle into the run
// loop.
type Command int

const (
	// CommandPlay starts audio flow on the device.
	CommandPlay Command = iota
	// CommandPause halts audio flow on the device.
	CommandPause
	// CommandTerminate ends the run loop.
	CommandTerminate
)

func (c Command) String() string {
	switch c {
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandTerminate:
		return "terminate"
	}
	return "unknown"
}

// commandQueue is an unbounded FIFO: any number of producers, one consumer.
// push never blocks and never drops, so handle methods stay fire-and-forget
// even after the run loop has exited. The consumer drains the whole queue in
// one call, collapsing command bursts into a single pass.
type commandQueue struct {
	mu      sync.Mutex
	pending []Command
}

func (q *commandQueue) push(cmd Command) {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	q.mu.Unlock()
}

func (q *commandQueue) drain() []Command {
	q.mu.Lock()
	cmds := q.pending
	q.pending = nil
	q.mu.Unlock()
	return cmds
}
