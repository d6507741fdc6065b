package merge

import (
	"context"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/worktree"
)

func loadText(ctx context.Context, store *object.Store, e *entry) (string, error) {
	if e == nil {
		return "", nil
	}
	_, rc, err := store.LoadBlob(ctx, e.Hash)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func isBinary(s string) bool {
	return strings.ContainsRune(s, 0)
}

// renderConflict builds merge-style conflict markers around only the
// lines that actually differ between ours and theirs, using a
// line-granularity diff so an edit far from a conflicting hunk doesn't
// get pulled inside the markers. Binary content (or content either
// side doesn't have, e.g. one side deleted the path) falls back to a
// single whole-content hunk.
func renderConflict(oursText, theirsText string) string {
	if isBinary(oursText) || isBinary(theirsText) {
		return conflictHunk(oursText, theirsText)
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oursText, theirsText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var out strings.Builder
	i := 0
	for i < len(diffs) {
		if diffs[i].Type == diffmatchpatch.DiffEqual {
			out.WriteString(diffs[i].Text)
			i++
			continue
		}

		var ours, theirs strings.Builder
		for i < len(diffs) && diffs[i].Type != diffmatchpatch.DiffEqual {
			switch diffs[i].Type {
			case diffmatchpatch.DiffDelete:
				ours.WriteString(diffs[i].Text)
			case diffmatchpatch.DiffInsert:
				theirs.WriteString(diffs[i].Text)
			}
			i++
		}
		out.WriteString(conflictHunk(ours.String(), theirs.String()))
	}
	return out.String()
}

func conflictHunk(ours, theirs string) string {
	var b strings.Builder
	b.WriteString("<<<<<<< ours\n")
	b.WriteString(ours)
	if ours != "" && !strings.HasSuffix(ours, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("=======\n")
	b.WriteString(theirs)
	if theirs != "" && !strings.HasSuffix(theirs, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(">>>>>>> theirs\n")
	return b.String()
}

func writeConflictMarkers(ctx context.Context, store *object.Store, wt worktree.Worktree, path string, _, o, t *entry) error {
	oursText, err := loadText(ctx, store, o)
	if err != nil {
		return err
	}
	theirsText, err := loadText(ctx, store, t)
	if err != nil {
		return err
	}

	content := renderConflict(oursText, theirsText)
	return wt.WriteBlob(ctx, path, pickMode(o, t), strings.NewReader(content))
}
