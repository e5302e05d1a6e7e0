// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const lockFileName = "lock.json"

// LockedSkill records one installed skill in a workdir
type LockedSkill struct {
	Version string   `json:"version"`
	SHA256  string   `json:"sha256,omitempty"`
	Files   []string `json:"files"`
}

// Lockfile tracks the skills installed in a workdir. It lives at
// <workdir>/.clawdhub/lock.json.
type Lockfile struct {
	Skills map[string]LockedSkill `json:"skills"`
}

func lockPath(workdir string) string {
	return filepath.Join(workdir, ".clawdhub", lockFileName)
}

// LoadLockfile reads the workdir lockfile. A missing file yields an
// empty lockfile, not an error.
func LoadLockfile(workdir string) (*Lockfile, error) {
	data, err := os.ReadFile(lockPath(workdir))
	if os.IsNotExist(err) {
		return &Lockfile{Skills: map[string]LockedSkill{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, err
	}
	if lf.Skills == nil {
		lf.Skills = map[string]LockedSkill{}
	}
	return &lf, nil
}

// Save writes the lockfile back to the workdir
func (lf *Lockfile) Save(workdir string) error {
	path := lockPath(workdir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
