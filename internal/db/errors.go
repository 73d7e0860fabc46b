package db

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnboundParameter matches any *UnboundParameterError.
var ErrUnboundParameter = errors.New("unbound named parameter")

// UnboundParameterError lists the :name placeholders that had no value.
type UnboundParameterError struct {
	Names []string
}

func (e *UnboundParameterError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnboundParameter, strings.Join(e.Names, ", "))
}

func (e *UnboundParameterError) Is(target error) bool {
	return target == ErrUnboundParameter
}

// Stage names the step of a query execution that failed.
type Stage string

const (
	StageRewrite Stage = "rewrite"
	StageAcquire Stage = "acquire"
	StagePrepare Stage = "prepare"
	StageExecute Stage = "execute"
	StageMap     Stage = "map"
)

// QueryError is returned by every Engine operation that fails.
type QueryError struct {
	Stage Stage
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
