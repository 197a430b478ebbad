package processor

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pinionhq/pinion/libs/action"
	"github.com/pinionhq/pinion/libs/gitref"
	"github.com/pinionhq/pinion/libs/workflow"
)

// DefaultConcurrency bounds parallel ref lookups unless configured otherwise.
const DefaultConcurrency = 10

type Options struct {
	WorkflowsDir    string
	DryRun          bool
	Backup          bool
	Concurrency     int
	ExcludePatterns []string
}

// Processor runs the scan, resolve and rewrite pipeline over a workflows
// directory. Per-file and per-reference failures are counted and logged;
// they never abort the run.
type Processor struct {
	resolver *gitref.Resolver
	options  Options
}

func New(resolver *gitref.Resolver, options Options) *Processor {
	if options.Concurrency < 1 {
		options.Concurrency = DefaultConcurrency
	}
	return &Processor{resolver: resolver, options: options}
}

// ProcessResults is the aggregate accounting for one run. ActionsPinned
// counts substitutions actually made (or, on a dry run, those that would
// have been made); FilesProcessed counts files that parsed successfully.
type ProcessResults struct {
	RunID          string               `json:"run_id"`
	DryRun         bool                 `json:"dry_run"`
	FilesProcessed int                  `json:"files_processed"`
	ActionsFound   int                  `json:"actions_found"`
	ActionsPinned  int                  `json:"actions_pinned"`
	AlreadyPinned  int                  `json:"already_pinned"`
	Errors         int                  `json:"errors"`
	PinnedActions  []workflow.PinRecord `json:"pinned_actions"`
}

// Process pins every resolvable mutable reference under the workflows
// directory. The returned error covers only failures to enumerate the
// directory itself; everything downstream is tolerated and tallied in
// Errors so one bad file or unreachable repository cannot sink the run.
func (p *Processor) Process(ctx context.Context) (*ProcessResults, error) {
	results := &ProcessResults{
		RunID:         uuid.NewString(),
		DryRun:        p.options.DryRun,
		PinnedActions: []workflow.PinRecord{},
	}

	files, err := workflow.FindWorkflowFiles(p.options.WorkflowsDir, p.options.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		slog.Info("no workflow files found", "dir", p.options.WorkflowsDir)
		return results, nil
	}
	slog.Debug("found workflow files", "dir", p.options.WorkflowsDir, "count", len(files))

	var parsed []*workflow.WorkflowFile
	for _, file := range files {
		wf, err := workflow.ParseFile(file)
		if err != nil {
			slog.Error("failed to read workflow file", "file", file, "error", err)
			results.Errors++
			continue
		}
		parsed = append(parsed, wf)
		results.FilesProcessed++
		results.ActionsFound += len(wf.Actions)
		results.AlreadyPinned += wf.PinnedCount()
	}

	toResolve := uniqueUnpinnedRefs(parsed)
	if len(toResolve) == 0 {
		slog.Info("nothing to pin", "files", results.FilesProcessed)
		return results, nil
	}

	slog.Debug("resolving references", "count", len(toResolve), "concurrency", p.options.Concurrency)
	outcomes := p.resolver.BatchResolve(ctx, toResolve, int64(p.options.Concurrency))

	resolved := make(map[string]action.PinnedAction, len(outcomes))
	for _, ref := range toResolve {
		outcome := outcomes[ref.String()]
		if outcome.Err != nil {
			slog.Warn("failed to resolve reference", "action", ref.String(), "error", outcome.Err)
			results.Errors++
			continue
		}
		resolved[ref.String()] = action.NewPinnedAction(ref, outcome.SHA)
	}

	for _, wf := range parsed {
		content, records := workflow.Rewrite(wf, resolved)
		if len(records) == 0 {
			continue
		}

		if !p.options.DryRun {
			if err := workflow.WriteFile(wf.Path, content, p.options.Backup); err != nil {
				slog.Error("failed to write workflow file", "file", wf.Path, "error", err)
				results.Errors++
				continue
			}
		}
		for _, record := range records {
			slog.Info(pinMessage(p.options.DryRun),
				"file", record.File,
				"action", record.Action,
				"ref", record.OldRef,
				"sha", record.SHA,
			)
		}

		results.ActionsPinned += len(records)
		results.PinnedActions = append(results.PinnedActions, records...)
	}

	return results, nil
}

func pinMessage(dryRun bool) string {
	if dryRun {
		return "would pin action"
	}
	return "pinned action"
}

// uniqueUnpinnedRefs collects the mutable references across all parsed
// files, deduplicated by canonical key so each distinct reference is
// resolved exactly once. The result is sorted to keep dispatch order
// deterministic.
func uniqueUnpinnedRefs(parsed []*workflow.WorkflowFile) []action.ActionRef {
	occurrences := lo.FlatMap(parsed, func(wf *workflow.WorkflowFile, _ int) []workflow.UsesLine {
		return wf.UnpinnedActions()
	})
	refs := lo.UniqBy(lo.Map(occurrences, func(occ workflow.UsesLine, _ int) action.ActionRef {
		return occ.Action
	}), func(ref action.ActionRef) string {
		return ref.String()
	})
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}
