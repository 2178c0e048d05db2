package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/ballpit/internal/physics"
)

var (
	// ErrAlreadyDisposed is returned by any call made after Dispose.
	ErrAlreadyDisposed = errors.New("sim: engine already disposed")

	// ErrInvalidArgument indicates a negative count, nil callback or bad configuration.
	ErrInvalidArgument = errors.New("sim: invalid argument")

	// ErrSpawnInfeasible indicates the requested bodies cannot be placed with the
	// minimum separation within the attempt budget.
	ErrSpawnInfeasible = physics.ErrSpawnInfeasible

	// ErrSimulationFault is returned by Dispose when a driver failed mid-run.
	ErrSimulationFault = errors.New("sim: simulation fault")
)

// FaultError records the first driver failure. The simulation is not retried;
// the fault surfaces from Dispose.
type FaultError struct {
	BodyID  int
	Tick    uint64
	Wrapped error
}

func (e *FaultError) Error() string {
	if e.BodyID < 0 {
		return fmt.Sprintf("shared clock tick %d: %v", e.Tick, e.Wrapped)
	}
	return fmt.Sprintf("body %d tick %d: %v", e.BodyID, e.Tick, e.Wrapped)
}

func (e *FaultError) Unwrap() error {
	return e.Wrapped
}

// recoverFault turns a panic on a driver goroutine into a FaultError. It must be
// deferred directly so recover sees the panic.
func recoverFault(bodyID int, tick *uint64, err *error) {
	if r := recover(); r != nil {
		*err = &FaultError{BodyID: bodyID, Tick: *tick, Wrapped: fmt.Errorf("panic: %v", r)}
	}
}
