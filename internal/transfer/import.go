// Package transfer validates imported task trees and renders exports.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/josephgoksu/tasknest/internal/tasktree"
	"github.com/josephgoksu/tasknest/internal/utils"
	"github.com/josephgoksu/tasknest/models"
)

// Import parses text as a task forest. The whole document is checked before
// anything is returned: on error the result is nil and the caller's current
// tree stays as it was.
func Import(text string) (models.TasksList, error) {
	if utils.IsBlank(text) {
		return nil, newImportError(KindEmpty, "", nil)
	}

	parsed, err := utils.TryParseJSON(text)
	if err != nil {
		return nil, newImportError(KindParse, "", unwrapSyntax(err))
	}

	if _, ok := parsed.([]any); !ok {
		return nil, newImportError(KindShape, fmt.Sprintf("got %T", parsed), nil)
	}

	if err := compiledTasksSchema.Validate(parsed); err != nil {
		detail := err.Error()
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := firstLeafCause(ve)
			detail = fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Message)
		}
		slog.Debug("import rejected by schema", "detail", detail)
		return nil, newImportError(KindFormat, detail, nil)
	}

	var tasks models.TasksList
	if err := json.Unmarshal([]byte(text), &tasks); err != nil {
		return nil, newImportError(KindFormat, err.Error(), err)
	}
	tasks = normalizeLeaves(tasks)

	if dup, ok := findDuplicateID(tasks); ok {
		return nil, newImportError(KindDuplicate, dup, nil)
	}

	return tasks, nil
}

// unwrapSyntax strips the "parse json" wrapping so the message shows only the
// decoder's complaint.
func unwrapSyntax(err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr
	}
	return err
}

// findDuplicateID reports the first id that occurs twice anywhere in the forest.
func findDuplicateID(tasks []models.Task) (string, bool) {
	seen := make(map[string]struct{})
	for _, id := range tasktree.IDs(tasks) {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}

// normalizeLeaves turns explicit empty subTasks arrays into absent ones.
func normalizeLeaves(tasks []models.Task) []models.Task {
	for i := range tasks {
		if len(tasks[i].SubTasks) == 0 {
			tasks[i].SubTasks = nil
			continue
		}
		tasks[i].SubTasks = normalizeLeaves(tasks[i].SubTasks)
	}
	return tasks
}
