// Copyright (c) 2025 Ben Averill
// SPDX-License-Identifier: AGPL-3.0-or-later

package secret

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	sealed, err := Seal("sk-live-abc123", "hunter2")
	require.NoError(t, err)
	require.True(t, IsSealed(sealed))
	require.NotContains(t, sealed, "sk-live-abc123")

	opened, err := Open(sealed, "hunter2")
	require.NoError(t, err)
	require.Equal(t, "sk-live-abc123", opened)
}

func TestOpenWrongPassphrase(t *testing.T) {
	sealed, err := Seal("secret value", "correct")
	require.NoError(t, err)

	_, err = Open(sealed, "wrong")
	require.True(t, errors.Is(err, ErrOpenFailed))
}

func TestOpenPlaintextPassthrough(t *testing.T) {
	opened, err := Open("not-sealed-at-all", "any")
	require.NoError(t, err)
	require.Equal(t, "not-sealed-at-all", opened)
}

func TestOpenCorruptValue(t *testing.T) {
	for _, value := range []string{
		SealedPrefix + "!!!not base64!!!",
		SealedPrefix + "c2hvcnQ=", // too short for salt+nonce
	} {
		_, err := Open(value, "any")
		require.Error(t, err, "value %q", value)
	}
}

func TestSealProducesFreshNonce(t *testing.T) {
	a, err := Seal("same plaintext", "pass")
	require.NoError(t, err)
	b, err := Seal("same plaintext", "pass")
	require.NoError(t, err)
	require.False(t, strings.EqualFold(a, b), "same plaintext must not seal identically")
}
