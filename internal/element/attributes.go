package element

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var commonAttributes = []string{"title", "slug", "enabled"}

// settable lists the attributes a mutation may assign, per kind.
var settable = map[Kind]map[string]bool{
	KindEntry:    attributeSet(commonAttributes, "postDate", "expiryDate", "authorId", "typeId"),
	KindAsset:    attributeSet(commonAttributes, "filename"),
	KindCategory: attributeSet(commonAttributes),
	KindUser:     attributeSet([]string{"enabled"}, "email", "username"),
}

func attributeSet(base []string, extra ...string) map[string]bool {
	m := make(map[string]bool, len(base)+len(extra))
	for _, n := range base {
		m[n] = true
	}
	for _, n := range extra {
		m[n] = true
	}
	return m
}

// CanSetAttribute reports whether name is an assignable attribute for the
// element's kind.
func (e *Element) CanSetAttribute(name string) bool {
	return settable[e.Kind][name]
}

// SetAttribute assigns an allow-listed attribute, converting value to the
// attribute's type.
func (e *Element) SetAttribute(name string, value any) error {
	if !e.CanSetAttribute(name) {
		return errors.Errorf("%s elements have no settable attribute %q", e.Kind, name)
	}
	var err error
	switch name {
	case "title":
		e.Title, err = ToString(value)
	case "slug":
		e.Slug, err = ToString(value)
	case "enabled":
		e.Enabled, err = ToBool(value)
	case "postDate":
		e.PostDate, err = ToTime(value)
	case "expiryDate":
		e.ExpiryDate, err = ToTime(value)
	case "authorId":
		e.AuthorID, err = ToInt64(value)
	case "typeId":
		e.TypeID, err = ToInt64(value)
	case "filename":
		e.Filename, err = ToString(value)
	case "email":
		e.Email, err = ToString(value)
	case "username":
		e.Username, err = ToString(value)
	}
	return errors.Wrapf(err, "set %s", name)
}

// Property reads an attribute or custom field by name.
func (e *Element) Property(name string) (any, bool) {
	switch name {
	case "id":
		return e.ID, true
	case "uid":
		return e.UID, true
	case "kind":
		return string(e.Kind), true
	case "siteId":
		return e.SiteID, true
	case "sectionId":
		return e.SectionID, true
	case "typeId":
		return e.TypeID, true
	case "groupId":
		return e.GroupID, true
	case "structureId":
		return e.StructureID, true
	case "parentId":
		return e.ParentID, true
	case "level":
		return e.Level, true
	case "enabled":
		return e.Enabled, true
	case "status":
		return e.Status(time.Now()), true
	case "title":
		return e.Title, true
	case "slug":
		return e.Slug, true
	case "postDate":
		return e.PostDate, true
	case "expiryDate":
		return e.ExpiryDate, true
	case "authorId":
		return e.AuthorID, true
	case "filename":
		return e.Filename, true
	case "url":
		return e.URL, true
	case "email":
		return e.Email, true
	case "username":
		return e.Username, true
	case "dateCreated":
		return e.DateCreated, true
	case "dateUpdated":
		return e.DateUpdated, true
	}
	return e.FieldValue(name)
}

// ToString converts scalar input values to a string. nil becomes "".
func ToString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case int, int32, int64, float64, bool:
		return fmt.Sprint(x), nil
	}
	return "", errors.Errorf("cannot use %T as string", v)
}

// ToBool converts bool-like input values.
func ToBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		return b, errors.Wrapf(err, "parse %q", x)
	case int:
		return x != 0, nil
	case int64:
		return x != 0, nil
	}
	return false, errors.Errorf("cannot use %T as bool", v)
}

// ToInt64 converts numeric input values. nil becomes 0.
func ToInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		if x != float64(int64(x)) {
			return 0, errors.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, errors.Wrapf(err, "parse %q", x)
	}
	return 0, errors.Errorf("cannot use %T as integer", v)
}

// ToTime converts RFC 3339 strings and time values. nil and "" clear the value.
func ToTime(v any) (*time.Time, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &x, nil
	case *time.Time:
		return x, nil
	case string:
		if x == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, x)
		if err != nil {
			return nil, errors.Wrapf(err, "parse date %q", x)
		}
		return &t, nil
	}
	return nil, errors.Errorf("cannot use %T as date", v)
}
