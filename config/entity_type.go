package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type EntityType string

const (
	ENTITY_PROPERTY   EntityType = "property"
	ENTITY_UNIT       EntityType = "unit"
	ENTITY_TENANT     EntityType = "tenant"
	ENTITY_JOB        EntityType = "job"
	ENTITY_INSPECTION EntityType = "inspection"
)

func (e *EntityType) String() string {
	switch *e {
	case ENTITY_PROPERTY:
		return "property"
	case ENTITY_UNIT:
		return "unit"
	case ENTITY_TENANT:
		return "tenant"
	case ENTITY_JOB:
		return "job"
	case ENTITY_INSPECTION:
		return "inspection"
	default:
		return "Unknown"
	}
}

func ParseEntityType(entityTypeStr string) (EntityType, error) {
	e := EntityType(strings.ToLower(entityTypeStr))
	switch e {
	case ENTITY_PROPERTY, ENTITY_UNIT, ENTITY_TENANT, ENTITY_JOB, ENTITY_INSPECTION:
		return e, nil
	default:
		return "", fmt.Errorf("invalid entity type: %s", entityTypeStr)
	}
}

func (entityType *EntityType) UnmarshalJSON(data []byte) error {
	var maybeEntityType string
	err := json.Unmarshal(data, &maybeEntityType)
	if err != nil {
		return err
	}
	e := EntityType(maybeEntityType)
	switch e {
	case ENTITY_PROPERTY, ENTITY_UNIT, ENTITY_TENANT, ENTITY_JOB, ENTITY_INSPECTION:
		{
			*entityType = e
			return nil
		}
	default:
		return fmt.Errorf("unknown entity type: %s. supported entity types are: %s, %s, %s, %s, %s",
			maybeEntityType, ENTITY_PROPERTY, ENTITY_UNIT, ENTITY_TENANT, ENTITY_JOB, ENTITY_INSPECTION)
	}
}
