package nn

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
)

type ActivationFunc func(x float64) float64

// Activation pairs a function with its derivative, both taking the
// pre-activation value.
type Activation struct {
	Name       string
	Func       ActivationFunc
	Derivative ActivationFunc
}

var activationRegistry = struct {
	mu sync.RWMutex
	m  map[string]Activation
}{
	m: make(map[string]Activation),
}

func init() {
	initializeBuiltInActivations()
}

func initializeBuiltInActivations() {
	for _, name := range []string{"identity", "relu", "tanh", "sigmoid"} {
		MustRegisterActivation(Activation{
			Name:       name,
			Func:       builtinActivation(name),
			Derivative: derivativeFunc(name),
		})
	}
}

func builtinActivation(name string) ActivationFunc {
	switch name {
	case "relu":
		return func(x float64) float64 {
			if x < 0 {
				return 0
			}
			return x
		}
	case "tanh":
		return Tanh
	case "sigmoid":
		return Sigmoid
	default:
		return func(x float64) float64 { return x }
	}
}

func MustRegisterActivation(a Activation) {
	if err := RegisterActivation(a); err != nil {
		panic(err)
	}
}

func RegisterActivation(a Activation) error {
	if a.Name == "" {
		return errors.New("activation name is required")
	}
	if a.Func == nil {
		return errors.New("activation function is required")
	}
	if a.Derivative == nil {
		return fmt.Errorf("activation %s: derivative is required", a.Name)
	}

	activationRegistry.mu.Lock()
	defer activationRegistry.mu.Unlock()

	if _, exists := activationRegistry.m[a.Name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, a.Name)
	}
	activationRegistry.m[a.Name] = a
	return nil
}

func GetActivation(name string) (Activation, error) {
	activationRegistry.mu.RLock()
	a, ok := activationRegistry.m[name]
	activationRegistry.mu.RUnlock()
	if !ok {
		return Activation{}, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return a, nil
}

func resetActivationRegistryForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.m = make(map[string]Activation)
	activationRegistry.mu.Unlock()
	initializeBuiltInActivations()
}
