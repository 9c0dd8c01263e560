package domain

import (
	"fmt"
	"strconv"
)

// Resource names a DataFacade resource
type Resource string

const (
	ResourceHealthMetrics Resource = "health-metrics"
	ResourceAppointments  Resource = "appointments"
	ResourceMedications   Resource = "medications"
	ResourceNotifications Resource = "notifications"
	ResourceProfile       Resource = "profile"
	ResourceCaretakers    Resource = "caretakers"
	ResourceHealthTips    Resource = "health-tips"
	ResourceDocuments     Resource = "documents"
)

// Resources lists every resource in a stable order
var Resources = []Resource{
	ResourceHealthMetrics,
	ResourceAppointments,
	ResourceMedications,
	ResourceNotifications,
	ResourceProfile,
	ResourceCaretakers,
	ResourceHealthTips,
	ResourceDocuments,
}

// ParseResource validates a resource name
func ParseResource(name string) (Resource, error) {
	for _, r := range Resources {
		if string(r) == name {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResource, name)
}

// OwnerScoped reports whether records of this resource belong to a user
func (r Resource) OwnerScoped() bool {
	return r != ResourceHealthTips
}

// Stringify renders scalar JSON values as strings
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
