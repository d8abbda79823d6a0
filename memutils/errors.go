package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// NonPositiveError is the error returned from CheckPositive if the number being tested is zero or negative
var NonPositiveError error = errors.New("number must be greater than zero")
