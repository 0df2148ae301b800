package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHashDeterminism(t *testing.T) {
	c := fullClient()

	h1, err := RecordHash(c)
	require.NoError(t, err)
	h2, err := RecordHash(c)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "RecordHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestRecordHashChangesWithCommands(t *testing.T) {
	a := Client{ID: "x", Name: "n"}
	b := Client{ID: "x", Name: "n", Commands: []ClientCommand{NewClientCommand(ResetAll)}}

	assert.NotEqual(t, MustRecordHash(a), MustRecordHash(b))
}

func TestRecordHashIgnoresEmptyVersusNil(t *testing.T) {
	a := Client{ID: "x", Name: "n"}
	b := Client{ID: "x", Name: "n", Commands: []ClientCommand{}, Protocols: []string{}}

	assert.Equal(t, MustRecordHash(a), MustRecordHash(b))
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`{"id":"x"}`)
	assert.NotEqual(t, hashWithDomain(DomainRecord, data), hashWithDomain("clientsync/other/v1", data))
}
