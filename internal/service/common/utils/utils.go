package utils

import (
	"reflect"
	"sort"

	"github.com/skywatch-aero/alertmirror/internal/service/common/db"
)

// DBTag maps struct field names to the column names carried in their db tags.
type DBTag map[string]string

// Columns converts the column names to the []any shape the psql select builder expects.
func (r DBTag) Columns() []any {
	columns := make([]any, 0, len(r))
	for _, tag := range r {
		columns = append(columns, tag)
	}

	return columns
}

// tagsFromStruct collects the db tags of s.  With onlySet, nil pointer fields are left out, which
// is what keeps inserts and updates limited to the fields a caller actually populated.
func tagsFromStruct[T db.Model](s T, onlySet bool) DBTag {
	structType := reflect.TypeOf(s)
	structValue := reflect.ValueOf(s)
	if structType.Kind() != reflect.Struct {
		structType = structType.Elem()
		structValue = structValue.Elem()
	}

	tags := make(DBTag)
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if onlySet && field.Type.Kind() == reflect.Pointer && structValue.Field(i).IsNil() {
			continue
		}
		tags[field.Name] = field.Tag.Get("db")
	}

	return tags
}

// GetNonNilDBTagsFromStruct returns the db tags of the non-pointer and non-nil pointer fields of s.
func GetNonNilDBTagsFromStruct[T db.Model](s T) DBTag {
	return tagsFromStruct(s, true)
}

// GetAllDBTagsFromStruct returns the db tags of every field of s.
func GetAllDBTagsFromStruct[T db.Model](s T) DBTag {
	return tagsFromStruct(s, false)
}

// GetColumnsAndValues resolves the fields named in tags to their column names and current values.
// Both slices are built together so they stay aligned, and fields are walked in sorted order so
// the generated parameter order is stable.  Nil pointer fields are skipped.
func GetColumnsAndValues[T db.Model](s T, tags DBTag) ([]string, []any) {
	structType := reflect.TypeOf(s)
	structValue := reflect.ValueOf(s)
	if structType.Kind() != reflect.Struct {
		structType = structType.Elem()
		structValue = structValue.Elem()
	}

	fieldNames := make([]string, 0, len(tags))
	for fieldName := range tags {
		fieldNames = append(fieldNames, fieldName)
	}
	sort.Strings(fieldNames)

	columns := make([]string, 0, len(tags))
	values := make([]any, 0, len(tags))
	for _, fieldName := range fieldNames {
		field, ok := structType.FieldByName(fieldName)
		if !ok {
			continue
		}

		fieldValue := structValue.FieldByName(fieldName)
		if field.Type.Kind() == reflect.Pointer && fieldValue.IsNil() {
			continue
		}

		columns = append(columns, tags[fieldName])
		values = append(values, fieldValue.Interface())
	}

	return columns, values
}

// GetDBTagsFromStructFields returns the db tags of the named fields only.  Fields that do not
// exist are ignored.
func GetDBTagsFromStructFields[T db.Model](s T, fields ...string) DBTag {
	structType := reflect.TypeOf(s)
	if structType.Kind() != reflect.Struct {
		structType = structType.Elem()
	}

	tags := make(DBTag)
	for _, field := range fields {
		f, found := structType.FieldByName(field)
		if !found {
			continue
		}

		tags[f.Name] = f.Tag.Get("db")
	}

	return tags
}

// GetColumns returns the db column names of the named fields, preserving the order in which the
// fields are listed.  Fields that do not exist are ignored.
func GetColumns[T db.Model](s T, fields []string) []string {
	structType := reflect.TypeOf(s)
	if structType.Kind() != reflect.Struct {
		structType = structType.Elem()
	}

	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		f, found := structType.FieldByName(field)
		if !found {
			continue
		}

		columns = append(columns, f.Tag.Get("db"))
	}

	return columns
}
