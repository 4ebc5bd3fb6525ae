package main

import (
	"path/filepath"
	"testing"

	"github.com/zhe.chen/moodcanvas/pkg/types"
)

func TestResolveDirs(t *testing.T) {
	tests := []struct {
		name       string
		cfg        types.PipelineConfig
		flagOutput string
		flagSet    bool
		wantOut    string
		wantTemp   string
	}{
		{
			name:       "config dirs honored when flag not passed",
			cfg:        types.PipelineConfig{OutputDir: "runs", TempDir: "scratch"},
			flagOutput: "output",
			flagSet:    false,
			wantOut:    "runs",
			wantTemp:   filepath.Join("scratch", "run-1"),
		},
		{
			name:       "explicit flag wins over config",
			cfg:        types.PipelineConfig{OutputDir: "runs", TempDir: "scratch"},
			flagOutput: "elsewhere",
			flagSet:    true,
			wantOut:    "elsewhere",
			wantTemp:   filepath.Join("scratch", "run-1"),
		},
		{
			name:       "defaults when config empty",
			cfg:        types.PipelineConfig{},
			flagOutput: "output",
			flagSet:    false,
			wantOut:    "output",
			wantTemp:   filepath.Join(".moodcanvas_tmp", "run-1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, temp := resolveDirs(tt.cfg, tt.flagOutput, tt.flagSet, "run-1")
			if out != tt.wantOut {
				t.Errorf("output dir = %q, want %q", out, tt.wantOut)
			}
			if temp != tt.wantTemp {
				t.Errorf("temp dir = %q, want %q", temp, tt.wantTemp)
			}
		})
	}
}
