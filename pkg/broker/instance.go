package broker

import (
	"github.com/cfoust/modswap/pkg/assets"
	"github.com/cfoust/modswap/pkg/loop"
	"github.com/cfoust/modswap/pkg/scene"
)

// Instance is a handle to an object requested through the broker.
type Instance struct {
	id         uint64
	Key        string
	Location   assets.Location
	Generation uint64
	future     *loop.Future[scene.Object]
}

// OnReady calls fn on the loop once the object exists.
func (i *Instance) OnReady(fn func(scene.Object, error)) {
	i.future.OnComplete(fn)
}

// Object returns the instantiated object once it has landed.
func (i *Instance) Object() (scene.Object, bool) {
	if !i.future.Settled() {
		return nil, false
	}

	object, err := i.future.Result()
	if err != nil || object == nil {
		return nil, false
	}

	return object, true
}

func (i *Instance) Ready() bool {
	return i.future.Settled()
}
