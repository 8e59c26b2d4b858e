package variable

import "fmt"

// NewQualitative reports that categorical variables are not supported.
func NewQualitative(categories []string, opts ...Option) (Variable, error) {
	return nil, fmt.Errorf("%w: %s variables (%d categories)", ErrNotImplemented, KindQualitative, len(categories))
}

// New builds a variable of the given kind.
func New(kind Kind, opts ...Option) (Variable, error) {
	switch kind {
	case KindContinuous:
		v, err := NewContinuous(opts...)
		if err != nil {
			return nil, err
		}
		return v, nil
	case KindInteger:
		v, err := NewInteger(opts...)
		if err != nil {
			return nil, err
		}
		return v, nil
	case KindQualitative:
		return NewQualitative(nil, opts...)
	}
	return nil, fmt.Errorf("variable: unknown kind %q", kind)
}
