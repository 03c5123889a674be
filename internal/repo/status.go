package repo

import (
	"github.com/Piyush29quanta/zit-my-git/internal/object"
)

// FileStatus classifies one working file.
type FileStatus struct {
	Path  string
	State State
}

type State int

const (
	// Staged: the working content matches what is staged.
	Staged State = iota
	// Modified: the file is tracked (staged or committed) but its
	// working content differs from the recorded snapshot.
	Modified
	// Untracked: the file appears in neither the stage nor the head
	// commit.
	Untracked
)

func (s State) String() string {
	switch s {
	case Staged:
		return "staged"
	case Modified:
		return "modified"
	default:
		return "untracked"
	}
}

// Status walks the working tree and classifies every eligible file
// against the stage and the head commit. Files whose working content
// matches their committed snapshot and are not staged are clean and
// omitted.
func (r *Repo) Status() ([]FileStatus, error) {
	entries, err := r.stage.Load()
	if err != nil {
		return nil, err
	}
	staged := make(map[string]string, len(entries))
	for _, e := range entries {
		staged[e.Path] = e.Hash
	}

	committed := make(map[string]string)
	head, err := r.chain.Head()
	if err != nil {
		return nil, err
	}
	if head != "" {
		record, err := r.chain.Resolve(head)
		if err != nil {
			return nil, err
		}
		for _, e := range record.Files {
			committed[e.Path] = e.Hash
		}
	}

	paths, err := r.tree.List()
	if err != nil {
		return nil, err
	}

	var statuses []FileStatus
	for _, path := range paths {
		content, err := r.tree.Read(path)
		if err != nil {
			// Raced with a deletion; treat as gone.
			continue
		}
		digest := object.ComputeDigest(content)

		if hash, ok := staged[path]; ok {
			if hash == digest {
				statuses = append(statuses, FileStatus{Path: path, State: Staged})
			} else {
				statuses = append(statuses, FileStatus{Path: path, State: Modified})
			}
			continue
		}
		if hash, ok := committed[path]; ok {
			if hash != digest {
				statuses = append(statuses, FileStatus{Path: path, State: Modified})
			}
			continue
		}
		statuses = append(statuses, FileStatus{Path: path, State: Untracked})
	}

	return statuses, nil
}
