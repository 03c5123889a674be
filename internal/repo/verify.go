package repo

import (
	"fmt"

	"go.uber.org/zap"
)

// Problem is one integrity finding from Verify.
type Problem struct {
	Digest string
	Detail string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Digest, p.Detail)
}

// Verify walks the chain from head and re-hashes every reachable
// object: each commit record, each blob it references, and each staged
// blob. It reports findings rather than failing on the first, so one
// damaged object does not hide the rest.
func (r *Repo) Verify() ([]Problem, error) {
	var problems []Problem

	head, err := r.chain.Head()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for digest := head; digest != "" && !seen[digest]; {
		seen[digest] = true

		if err := r.objects.Verify(digest); err != nil {
			problems = append(problems, Problem{Digest: digest, Detail: err.Error()})
			break
		}

		record, err := r.chain.Resolve(digest)
		if err != nil {
			problems = append(problems, Problem{Digest: digest, Detail: err.Error()})
			break
		}

		for _, e := range record.Files {
			if err := r.objects.Verify(e.Hash); err != nil {
				problems = append(problems, Problem{
					Digest: e.Hash,
					Detail: fmt.Sprintf("blob for %s in commit %s: %v", e.Path, digest, err),
				})
			}
		}

		if record.Parent == nil {
			break
		}
		digest = *record.Parent
	}

	entries, err := r.stage.Load()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		ok, err := r.objects.Exists(e.Hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			problems = append(problems, Problem{
				Digest: e.Hash,
				Detail: fmt.Sprintf("staged blob for %s missing", e.Path),
			})
		}
	}

	r.logger.Info("verified repository",
		zap.Int("commits", len(seen)),
		zap.Int("problems", len(problems)))
	return problems, nil
}
