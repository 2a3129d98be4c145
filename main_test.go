package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(*Settings)
		wantErr bool
	}{
		{name: "no flags keeps settings", args: nil, want: func(*Settings) {}},
		{
			name: "overrides",
			args: []string{"--search", `"oat milk"`, "-g", "tag", "--sub-group-by", "status", "--show-checked", "--all"},
			want: func(s *Settings) {
				s.Search = `"oat milk"`
				s.GroupBy = GroupTag
				s.SubGroupBy = GroupStatus
				s.ShowChecked = true
				s.ShowAllTodos = true
			},
		},
		{
			name: "tags",
			args: []string{"--tags", "todo, #work ,,"},
			want: func(s *Settings) { s.TodoTags = "todo\n#work" },
		},
		{
			name: "explicit false",
			args: []string{"--show-checked=false"},
			want: func(s *Settings) { s.ShowChecked = false },
		},
		{name: "bad group", args: []string{"--group-by", "priority"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, flags, err := parseFlags(tt.args)
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}

			base := DefaultSettings()
			base.ShowChecked = true

			got, err := applyFlags(base, opts, flags)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			want := base
			tt.want(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("applyFlags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFlagsUnknown(t *testing.T) {
	if _, _, err := parseFlags([]string{"--nope"}); err == nil {
		t.Error("parseFlags() accepted an unknown flag")
	}
}
