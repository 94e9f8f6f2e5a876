package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"log", []string{"log"}},
		{"log, kafka,,log ,rabbitmq", []string{"log", "kafka", "rabbitmq"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitList(tt.in, ","))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Equal(t, []string{"foo", "bar", "Foo"}, DedupeAndTrim([]string{" foo ", "bar", "foo", "", "Foo"}))
	assert.Empty(t, DedupeAndTrim(nil))
}

func TestDedupeAndTrimLower(t *testing.T) {
	got := DedupeAndTrimLower([]string{"ABCD", " abcd", "ef", "  "})
	assert.Equal(t, []string{"abcd", "ef"}, got)
}
