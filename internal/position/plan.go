// Package position keeps the members of a sortable group numbered 0..n-1.
//
// Plan holds the pure rules deciding where a member may land. Engine applies
// a plan against a Store, shifting the siblings so that the group never
// shows a hole or a duplicate once the surrounding transaction commits.
package position

import (
	"fmt"

	"smarterd/internal/apperrors"
	"smarterd/internal/models"
)

// Field is the input field position violations are reported on.
const Field = "position"

// Plan holds the limits of one kind of sortable group.
type Plan struct {
	Max           int    // capacity of a group
	EntityName    string // member type name used in messages
	GroupProperty string // name of the property grouping members
}

// Attributes is the plan of the attributes of an entity.
var Attributes = Plan{Max: models.MaxAttributesPerEntity, EntityName: "Attribute", GroupProperty: "entity"}

// Insert resolves the position of a new member. last is the highest position
// in use and is ignored when hasSiblings is false. requested is either a
// concrete position or models.UnassignedPosition to append.
func (p Plan) Insert(last int, hasSiblings bool, requested int) (int, error) {
	if err := p.checkRange(requested); err != nil {
		return 0, err
	}
	if !hasSiblings {
		last = models.UnassignedPosition
	}

	// A full group is a quota problem whatever position was asked for.
	if last+1 >= p.Max {
		return 0, p.full(last)
	}

	if requested == models.UnassignedPosition {
		return last + 1, nil
	}
	if !hasSiblings && requested > 0 {
		return 0, apperrors.PositionHole(Field,
			"You can't set the position higher than 0 because it'll create holes in positions.",
			map[string]any{"given": requested})
	}
	if requested > last+1 {
		return 0, apperrors.PositionHole(Field,
			fmt.Sprintf("You can't set the position greater than 1 from the last one. Last position is %d, position given is %d", last, requested),
			map[string]any{"last": last, "given": requested})
	}
	return requested, nil
}

// Move resolves the new position of a member currently at from. Moving only
// permutes the group, so the target must be an existing position;
// models.UnassignedPosition moves the member to the end.
func (p Plan) Move(last, from, requested int) (int, error) {
	if err := p.checkRange(requested); err != nil {
		return 0, err
	}
	if from < 0 || from > last {
		return 0, apperrors.UnexpectedState(
			fmt.Sprintf("%s position %d is outside of its group (last is %d)", p.EntityName, from, last), nil)
	}
	if requested == models.UnassignedPosition {
		return last, nil
	}
	if requested > last {
		return 0, apperrors.PositionHole(Field,
			fmt.Sprintf("You can't set the position greater than the last one. Last position is %d, position given is %d", last, requested),
			map[string]any{"last": last, "given": requested})
	}
	return requested, nil
}

func (p Plan) checkRange(requested int) error {
	if requested < models.UnassignedPosition || requested > p.Max {
		return apperrors.Validation(Field,
			fmt.Sprintf("This value should be between %d and %d.", models.UnassignedPosition, p.Max))
	}
	return nil
}

func (p Plan) full(last int) error {
	return &apperrors.Error{
		Kind:  apperrors.KindQuotaExceeded,
		Field: Field,
		Detail: fmt.Sprintf("Unable to create/define this %s for this %s at the last position. "+
			"The maximum occurrence has been reached or the position of a(n) %s has been set to the maximum.",
			p.EntityName, p.GroupProperty, p.EntityName),
		Params: map[string]any{"child": p.EntityName, "parent": p.GroupProperty, "max": p.Max, "current": last + 1},
	}
}
