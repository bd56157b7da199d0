package transfer

import (
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const tasksSchemaURL = "https://tasknest.dev/schemas/tasks.json"

// tasksSchema describes an import document: an array of task nodes, nested
// through subTasks. Unknown properties are tolerated and dropped on decode.
const tasksSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {"$ref": "#/definitions/task"},
	"definitions": {
		"task": {
			"type": "object",
			"required": ["id", "description", "isCompleted"],
			"properties": {
				"id": {"type": "string"},
				"parentId": {"type": "string"},
				"description": {"type": "string"},
				"isCompleted": {"type": "boolean"},
				"subTasks": {
					"type": "array",
					"items": {"$ref": "#/definitions/task"}
				}
			}
		}
	}
}`

var compiledTasksSchema = jsonschema.MustCompileString(tasksSchemaURL, tasksSchema)

// firstLeafCause walks a schema error down to its most specific cause.
func firstLeafCause(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}
