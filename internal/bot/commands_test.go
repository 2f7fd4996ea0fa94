package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 3)

	byName := map[string]*discordgo.ApplicationCommand{}
	for _, d := range defs {
		byName[d.Name] = d
	}

	add := byName[CommandAdd]
	require.NotNil(t, add)
	require.Len(t, add.Options, 4)
	assert.True(t, add.Options[0].Required)
	assert.Equal(t, maxSubjectLen, add.Options[0].MaxLength)
	assert.Equal(t, maxReasonOptionLen, add.Options[2].MaxLength)
	assert.True(t, add.Options[1].Required)
	assert.Len(t, add.Options[1].Choices, 2)
	assert.False(t, add.Options[2].Required)
	assert.Equal(t, discordgo.ApplicationCommandOptionAttachment, add.Options[3].Type)

	update := byName[CommandUpdateFile]
	require.NotNil(t, update)
	for _, o := range update.Options {
		assert.True(t, o.Required, o.Name)
	}

	list := byName[CommandList]
	require.NotNil(t, list)
	require.Len(t, list.Options, 1)
	assert.Nil(t, list.Options[0].MinValue)
	assert.Zero(t, list.Options[0].MaxValue)
}

type fakeRegistrar struct {
	appID, guildID string
	got            []*discordgo.ApplicationCommand
	err            error
}

func (f *fakeRegistrar) ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.appID, f.guildID, f.got = appID, guildID, cmds
	if f.err != nil {
		return nil, f.err
	}
	return cmds, nil
}

func TestRegister(t *testing.T) {
	r := &fakeRegistrar{}
	created, err := Register(r, "app", "guild")
	require.NoError(t, err)
	assert.Len(t, created, 3)
	assert.Equal(t, "app", r.appID)
	assert.Equal(t, "guild", r.guildID)

	r = &fakeRegistrar{err: errors.New("401 unauthorized")}
	_, err = Register(r, "app", "")
	assert.ErrorContains(t, err, "register commands")
	assert.Empty(t, r.guildID)
}
