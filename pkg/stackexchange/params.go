package stackexchange

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	errs "github.com/9ao9ai9ar/stack-exchange-backup/pkg/errors"
)

// MaxPageSize is the largest pagesize the server accepts on paged methods
const MaxPageSize = 100

const (
	// MaxIDsPerRequest is the batch size for question, answer and user ids
	MaxIDsPerRequest = 100
	// MaxFiltersPerRequest is the batch size for /filters/{filters}
	MaxFiltersPerRequest = 20
)

// Auth carries the credentials attached to every request.
// Key is the long-lived request key that raises the daily quota;
// AccessToken is only needed for private data.
type Auth struct {
	Key         string `param:"key"`
	AccessToken string `param:"access_token"`
}

// Params is implemented by every endpoint parameter struct
type Params interface {
	base() *Base
	Serialize() (url.Values, error)
}

// Base is embedded by every endpoint parameter struct
type Base struct {
	Filter string `param:"filter"`
	Auth   *Auth  `param:"auth"`
	// Extra holds parameters the struct does not declare, such as
	// request_id. Values here override declared fields and skip validation.
	Extra map[string]string `param:",extra"`

	batches  []string
	prepared bool
}

func (b *Base) base() *Base { return b }

// AttachAuth sets the credentials unless some are already attached
func (b *Base) AttachAuth(a Auth) {
	if b.Auth == nil {
		b.Auth = &a
	}
}

// Batches returns the semicolon-joined id chunks produced by Prepare
func (b *Base) Batches() []string {
	return b.batches
}

// prepare runs Prepare on p unless a constructor already did
func prepare(p Params) error {
	if p.base().prepared {
		return nil
	}
	return Prepare(p)
}

// Paging selects one page of a paged method
type Paging struct {
	Page     *int `param:"page" validate:"omitempty,min=1"`
	PageSize *int `param:"pagesize" validate:"omitempty,min=0,max=100"`
}

// Range restricts results by creation date (unix seconds) and by the sort
// field's value.
type Range struct {
	FromDate *int64  `param:"fromdate" validate:"omitempty,min=0"`
	ToDate   *int64  `param:"todate" validate:"omitempty,min=0"`
	Min      *string `param:"min"`
	Max      *string `param:"max"`
}

// Sorting orders the results of a list method
type Sorting struct {
	Sort  *string `param:"sort" validate:"omitempty,oneof=activity creation votes"`
	Order *string `param:"order" validate:"omitempty,oneof=desc asc"`
}

// QuestionsByIDsParams are the parameters of /questions/{ids}
type QuestionsByIDsParams struct {
	Base
	Paging
	Range
	Sorting
	IDs  []int64 `param:"-" batch:"100" validate:"dive,gt=0"`
	Site string  `param:"site" validate:"required"`
}

// AnswersOnUsersParams are the parameters of /users/{ids}/answers
type AnswersOnUsersParams struct {
	Base
	Paging
	Range
	Sorting
	IDs  []int64 `param:"-" batch:"100" validate:"dive,gt=0"`
	Site string  `param:"site" validate:"required"`
}

// QuestionsOnUsersParams are the parameters of /users/{ids}/questions
type QuestionsOnUsersParams struct {
	Base
	Paging
	Range
	Sorting
	IDs  []int64 `param:"-" batch:"100" validate:"dive,gt=0"`
	Site string  `param:"site" validate:"required"`
}

// AssociatedUsersParams are the parameters of /users/{ids}/associated.
// IDs are account ids.
type AssociatedUsersParams struct {
	Base
	Paging
	IDs   []int64  `param:"-" batch:"100" validate:"dive,gt=0"`
	Types []string `param:"types" validate:"omitempty,dive,oneof=main_site meta_site"`
}

// SitesParams are the parameters of /sites
type SitesParams struct {
	Base
	Paging
}

// CreateFilterParams are the parameters of /filters/create. Include and
// Exclude name fields of the common wrapper object with a leading ".".
type CreateFilterParams struct {
	Base
	Include    []string `param:"include"`
	Exclude    []string `param:"exclude"`
	BaseFilter *string  `param:"base"`
	Unsafe     *bool    `param:"unsafe"`
}

// ReadFilterParams are the parameters of /filters/{filters}
type ReadFilterParams struct {
	Base
	Filters []string `param:"-" batch:"20" validate:"dive,required"`
}

// SimulateErrorParams are the parameters of /errors/{id}
type SimulateErrorParams struct {
	Base
	ID int `param:"-" validate:"gt=0"`
}

func (p *QuestionsByIDsParams) Serialize() (url.Values, error)   { return Flatten(p) }
func (p *AnswersOnUsersParams) Serialize() (url.Values, error)   { return Flatten(p) }
func (p *QuestionsOnUsersParams) Serialize() (url.Values, error) { return Flatten(p) }
func (p *AssociatedUsersParams) Serialize() (url.Values, error)  { return Flatten(p) }
func (p *SitesParams) Serialize() (url.Values, error)            { return Flatten(p) }
func (p *CreateFilterParams) Serialize() (url.Values, error)     { return Flatten(p) }
func (p *ReadFilterParams) Serialize() (url.Values, error)       { return Flatten(p) }
func (p *SimulateErrorParams) Serialize() (url.Values, error)    { return Flatten(p) }

// NewQuestionsByIDsParams validates p and splits its ids into batches
func NewQuestionsByIDsParams(p QuestionsByIDsParams) (*QuestionsByIDsParams, error) {
	return &p, Prepare(&p)
}

// NewAnswersOnUsersParams validates p and splits its ids into batches
func NewAnswersOnUsersParams(p AnswersOnUsersParams) (*AnswersOnUsersParams, error) {
	return &p, Prepare(&p)
}

// NewQuestionsOnUsersParams validates p and splits its ids into batches
func NewQuestionsOnUsersParams(p QuestionsOnUsersParams) (*QuestionsOnUsersParams, error) {
	return &p, Prepare(&p)
}

// NewAssociatedUsersParams validates p and splits its ids into batches
func NewAssociatedUsersParams(p AssociatedUsersParams) (*AssociatedUsersParams, error) {
	return &p, Prepare(&p)
}

// NewSitesParams validates p
func NewSitesParams(p SitesParams) (*SitesParams, error) {
	return &p, Prepare(&p)
}

// NewCreateFilterParams validates p
func NewCreateFilterParams(p CreateFilterParams) (*CreateFilterParams, error) {
	return &p, Prepare(&p)
}

// NewReadFilterParams validates p and splits its filters into batches
func NewReadFilterParams(p ReadFilterParams) (*ReadFilterParams, error) {
	return &p, Prepare(&p)
}

// NewSimulateErrorParams validates p
func NewSimulateErrorParams(p SimulateErrorParams) (*SimulateErrorParams, error) {
	return &p, Prepare(&p)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _ := parseParamTag(f)
			if name == "" || name == "-" {
				return strings.ToLower(f.Name)
			}
			return name
		})
	})
	return validate
}

// Prepare validates p against its validate tags and stores the batches of
// its batch-tagged field, if any. It is called by every NewXxxParams
// constructor and may be used directly on custom parameter structs that
// embed Base.
func Prepare(p Params) error {
	if err := getValidator().Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &errs.ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed on %q constraint (value %v)", fe.Tag(), fe.Value()),
				Err:     err,
			}
		}
		return &errs.ValidationError{Message: "invalid parameters", Err: err}
	}

	v := reflect.Indirect(reflect.ValueOf(p))
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("batch")
		if !ok {
			continue
		}
		size, err := strconv.Atoi(tag)
		if err != nil || size <= 0 {
			return &errs.ValidationError{Field: f.Name, Message: "bad batch size " + strconv.Quote(tag)}
		}
		values, err := stringsOf(v.Field(i))
		if err != nil {
			return &errs.ValidationError{Field: f.Name, Message: err.Error()}
		}
		p.base().batches = SplitBatches(values, size)
	}
	p.base().prepared = true
	return nil
}

// SplitBatches joins values into ";"-separated chunks of at most size
// elements, preserving order.
func SplitBatches(values []string, size int) []string {
	if len(values) == 0 {
		return nil
	}
	batches := make([]string, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		batches = append(batches, strings.Join(values[start:end], ";"))
	}
	return batches
}

// Flatten serializes a parameter struct into query values. Nested structs
// are flattened into the parent's namespace, nil pointers and empty
// strings or slices are dropped, slices are joined with ";", and fields
// tagged param:",extra" are merged last. On a name collision the field
// visited last wins.
func Flatten(v any) (url.Values, error) {
	out := url.Values{}
	var extras []map[string]string

	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("cannot flatten %T", v)}
	}
	if err := flattenInto(out, rv, &extras); err != nil {
		return nil, err
	}
	for _, extra := range extras {
		for k, val := range extra {
			out.Set(k, val)
		}
	}
	return out, nil
}

func flattenInto(out url.Values, v reflect.Value, extras *[]map[string]string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opt := parseParamTag(f)
		if name == "-" {
			continue
		}
		fv := v.Field(i)

		if opt == "extra" {
			if m, ok := fv.Interface().(map[string]string); ok && len(m) > 0 {
				*extras = append(*extras, m)
			}
			continue
		}

		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Struct {
			if err := flattenInto(out, fv, extras); err != nil {
				return err
			}
			continue
		}

		if name == "" {
			name = strings.ToLower(f.Name)
		}
		s, ok, err := leafString(fv)
		if err != nil {
			return &errs.ValidationError{Field: name, Message: err.Error()}
		}
		if ok {
			out.Set(name, s)
		}
	}
	return nil
}

func leafString(v reflect.Value) (string, bool, error) {
	switch v.Kind() {
	case reflect.String:
		return v.String(), v.Len() > 0, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true, nil
	case reflect.Slice:
		if v.Len() == 0 {
			return "", false, nil
		}
		parts, err := stringsOf(v)
		if err != nil {
			return "", false, err
		}
		return strings.Join(parts, ";"), true, nil
	default:
		return "", false, fmt.Errorf("unsupported parameter kind %s", v.Kind())
	}
}

func stringsOf(v reflect.Value) ([]string, error) {
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("expected a list, got %s", v.Kind())
	}
	parts := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		s, ok, err := leafString(reflect.Indirect(v.Index(i)))
		if err != nil {
			return nil, err
		}
		if ok {
			parts = append(parts, s)
		}
	}
	return parts, nil
}

func parseParamTag(f reflect.StructField) (name, opt string) {
	tag := f.Tag.Get("param")
	name, opt, _ = strings.Cut(tag, ",")
	return name, opt
}
