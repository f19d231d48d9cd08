package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-d", "data.db"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "joined value",
			args:    []string{"--config=conf.json", "-d", "data.db"},
			allowed: []string{"--config"},
			want:    []string{"--config=conf.json"},
		},
		{
			name:    "multiple allowed",
			args:    []string{"-d", "data.db", "-b", "backups", "-x", "y"},
			allowed: []string{"-d", "-b"},
			want:    []string{"-d", "data.db", "-b", "backups"},
		},
		{
			name:    "flag without value",
			args:    []string{"-c", "-d", "data.db"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-c", "conf.json"},
			allowed: nil,
			want:    []string{},
		},
		{
			name:    "empty args",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	defer func() { os.Args = orig }()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short flag", []string{"billkeeper", "-c", "conf.json"}, "conf.json"},
		{"long flag", []string{"billkeeper", "-config", "other.json"}, "other.json"},
		{"joined", []string{"billkeeper", "-config=joined.json"}, "joined.json"},
		{"absent", []string{"billkeeper", "-d", "data.db"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			assert.Equal(t, tt.want, JsonConfigFlags())
		})
	}
}
