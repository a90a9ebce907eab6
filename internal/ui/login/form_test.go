package login

import (
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/seminar-digest/internal/credential"
)

func TestSave(t *testing.T) {
	got := map[string]string{}
	set := func(k, v string) error {
		got[k] = v
		return nil
	}

	saved, err := Save(Credentials{MailPassword: " pw ", APIKey: ""}, set)
	require.NoError(t, err)
	assert.Equal(t, []string{credential.KeyMailPassword}, saved)
	assert.Equal(t, map[string]string{credential.KeyMailPassword: "pw"}, got)
}

func TestSave_StopsOnError(t *testing.T) {
	calls := 0
	set := func(k, v string) error {
		calls++
		return errors.New("locked")
	}

	saved, err := Save(Credentials{MailPassword: "pw", APIKey: "sk"}, set)
	assert.EqualError(t, err, "locked")
	assert.Empty(t, saved)
	assert.Equal(t, 1, calls)
}

func TestNewForm(t *testing.T) {
	var c Credentials
	f := NewForm(&c, "me@mails.tsinghua.edu.cn")
	require.NotNil(t, f)
	assert.Equal(t, huh.StateNormal, f.State)
}
