package imageops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogForwarderReceivesEachMessageOnce(t *testing.T) {
	var got []string
	InstallLogForwarder(func(message string) {
		got = append(got, message)
	})
	defer InstallLogForwarder(nil)

	Warn("thumbnail: attention interest not implemented")
	Warnf("jpegsave: %s", "bad marker")

	assert.Equal(t, []string{
		"thumbnail: attention interest not implemented",
		"jpegsave: bad marker",
	}, got)
}

func TestLogForwarderReplacement(t *testing.T) {
	var first, second int
	InstallLogForwarder(func(string) { first++ })
	Warn("one")

	InstallLogForwarder(func(string) { second++ })
	defer InstallLogForwarder(nil)
	Warn("two")

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}
