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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/store"
)

// newTestStore opens a fresh in-memory sqlite store with schema migrated,
// the same path store.Open takes for a real deployment, just pointed at
// ":memory:" so each test gets an isolated database.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.DefaultDatabaseConfig("sqlite3")
	cfg.Database = ":memory:"
	st, err := store.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
