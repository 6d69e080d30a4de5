// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCancelRegistryCancelInvokesAndClearsEntry(t *testing.T) {
	reg := newCancelRegistry()
	called := false
	reg.register("sess-1", func() { called = true })

	require.True(t, reg.cancel("sess-1"))
	require.True(t, called)

	// a second cancel on the same id finds nothing left to cancel.
	require.False(t, reg.cancel("sess-1"))
}

func TestCancelRegistryCancelUnknownSessionReturnsFalse(t *testing.T) {
	reg := newCancelRegistry()
	require.False(t, reg.cancel("never-registered"))
}

func TestCancelRegistryReleaseWithoutCancelDoesNotInvoke(t *testing.T) {
	reg := newCancelRegistry()
	called := false
	reg.register("sess-2", func() { called = true })

	reg.release("sess-2")

	require.False(t, called)
	require.False(t, reg.cancel("sess-2"))
}
