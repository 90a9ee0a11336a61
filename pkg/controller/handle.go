package controller

import (
	"github.com/google/uuid"
	"github.com/joshmeranda/resourcefilter/pkg/source"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

type HandleKind string

const (
	HandleAdd    HandleKind = "Add"
	HandleUpdate HandleKind = "Update"
	HandleDelete HandleKind = "Delete"
)

type job struct {
	id     uuid.UUID
	kind   HandleKind
	object *unstructured.Unstructured
}

// Match is an object which matched the filter when it was handled.
type Match struct {
	Kind   HandleKind
	Name   string
	Record map[string]any
}

func (controller *Controller) handle(j job) {
	name := source.ObjectName(j.object.Object)
	logger := controller.Logger.With("job", j.id.String())

	matched, err := controller.Filter.Evaluate(j.object.Object)
	if err != nil {
		logger.Errorf("could not evaluate filter for '%s': %s", name, err)
		return
	}

	if !matched {
		logger.Debugf("%s '%s' does not match", j.kind, name)
		return
	}

	logger.Debugf("%s '%s' matches", j.kind, name)

	controller.OnMatch(Match{
		Kind:   j.kind,
		Name:   name,
		Record: j.object.Object,
	})
}
