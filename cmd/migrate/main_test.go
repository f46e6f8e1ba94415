package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		parse   func(string) (int, error)
		arg     string
		want    int
		wantErr bool
	}{
		{name: "version zero", parse: parseVersion, arg: "0", want: 0},
		{name: "version", parse: parseVersion, arg: "3", want: 3},
		{name: "negative version", parse: parseVersion, arg: "-1", wantErr: true},
		{name: "non-numeric version", parse: parseVersion, arg: "latest", wantErr: true},
		{name: "steps", parse: parseSteps, arg: "2", want: 2},
		{name: "zero steps", parse: parseSteps, arg: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parse(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	if err := report(migrate.ErrNoChange, "unchanged", "done"); err != nil {
		t.Errorf("expected ErrNoChange to be reported as success, got %v", err)
	}
	if err := report(nil, "unchanged", "done"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	failure := errors.New("dirty database")
	if err := report(failure, "unchanged", "done"); !errors.Is(err, failure) {
		t.Errorf("expected wrapped failure, got %v", err)
	}
}
