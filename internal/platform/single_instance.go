package platform

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"sync"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

const (
	minLockPort = 20000
	maxLockPort = 39999
)

// InstanceGuard holds the single-instance lock: a localhost port derived
// from the application name.
type InstanceGuard struct {
	once     sync.Once
	listener net.Listener
	address  string
}

// AcquireSingleInstance binds the lock port for appName.
func AcquireSingleInstance(ctx context.Context, appName string) (*InstanceGuard, error) {
	if appName == "" {
		return nil, ErrEmptyAppName
	}
	address := fmt.Sprintf("127.0.0.1:%d", lockPort(appName))

	var config net.ListenConfig
	listener, err := config.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is taken: %v", ErrAlreadyRunning, address, err)
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// Release frees the lock. It is safe to call more than once.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	var err error
	guard.once.Do(func() {
		err = guard.listener.Close()
	})
	return err
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func lockPort(appName string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appName))
	rangeSize := maxLockPort - minLockPort + 1
	return minLockPort + int(hash.Sum32()%uint32(rangeSize))
}
