package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Category string

const (
	CATEGORY_PHOTO     Category = "photo"
	CATEGORY_DOCUMENT  Category = "document"
	CATEGORY_FLOORPLAN Category = "floorplan"
	CATEGORY_REPORT    Category = "report"
)

func (c *Category) String() string {
	switch *c {
	case CATEGORY_PHOTO:
		return "photo"
	case CATEGORY_DOCUMENT:
		return "document"
	case CATEGORY_FLOORPLAN:
		return "floorplan"
	case CATEGORY_REPORT:
		return "report"
	default:
		return "Unknown"
	}
}

// Category is optional on uploads; the empty string means uncategorized.
func ParseCategory(categoryStr string) (Category, error) {
	if categoryStr == "" {
		return "", nil
	}
	c := Category(strings.ToLower(categoryStr))
	switch c {
	case CATEGORY_PHOTO, CATEGORY_DOCUMENT, CATEGORY_FLOORPLAN, CATEGORY_REPORT:
		return c, nil
	default:
		return "", fmt.Errorf("invalid category: %s", categoryStr)
	}
}

func (category *Category) UnmarshalJSON(data []byte) error {
	var maybeCategory string
	err := json.Unmarshal(data, &maybeCategory)
	if err != nil {
		return err
	}
	c := Category(maybeCategory)
	switch c {
	case "", CATEGORY_PHOTO, CATEGORY_DOCUMENT, CATEGORY_FLOORPLAN, CATEGORY_REPORT:
		{
			*category = c
			return nil
		}
	default:
		return fmt.Errorf("unknown category: %s. supported categories are: %s, %s, %s, %s",
			maybeCategory, CATEGORY_PHOTO, CATEGORY_DOCUMENT, CATEGORY_FLOORPLAN, CATEGORY_REPORT)
	}
}
