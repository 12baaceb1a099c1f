package mongo

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/yoockh/hirelink/internal/models"
)

// AllRoleTypes is the sentinel that disables the role type filter. It is
// matched exactly, like any other role type label.
const AllRoleTypes = "All"

// PostingFilter narrows the catalog. Empty fields mean no filter.
type PostingFilter struct {
	Title    string
	Location string
	RoleType string
}

func (f PostingFilter) normalized() PostingFilter {
	f.Title = strings.TrimSpace(f.Title)
	f.Location = strings.TrimSpace(f.Location)
	f.RoleType = strings.TrimSpace(f.RoleType)
	if f.RoleType == AllRoleTypes {
		f.RoleType = ""
	}
	return f
}

// buildSearchQuery returns the catalog query: active postings only, with
// case-insensitive substring matches on title and location.
func buildSearchQuery(f PostingFilter) bson.M {
	f = f.normalized()
	q := bson.M{"status": models.PostingActive}
	if f.Title != "" {
		q["title"] = containsFold(f.Title)
	}
	if f.Location != "" {
		q["location"] = containsFold(f.Location)
	}
	if f.RoleType != "" {
		q["role_type"] = f.RoleType
	}
	return q
}

// buildRecommendQuery matches active postings sharing a tag with keys and
// not owned by excludeOwner.
func buildRecommendQuery(keys []string, excludeOwner string) bson.M {
	return bson.M{
		"status":   models.PostingActive,
		"tag_keys": bson.M{"$in": keys},
		"owner_id": bson.M{"$ne": excludeOwner},
	}
}

func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
