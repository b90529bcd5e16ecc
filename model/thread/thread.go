package thread

import (
	"fmt"

	"github.com/osforge/schedcore/internal/idgen"
)

// VMSpace is a non-owning reference to a thread's user address space. The
// scheduling core never dereferences it; idle and kernel threads carry nil.
type VMSpace struct {
	ID string `json:"id"`
}

// Thread represents a schedulable entity. The scheduling core references
// threads, it never allocates or frees them; creation and teardown belong to
// collaborators.
type Thread struct {
	ID      string        `json:"id"`
	Name    string        `json:"name,omitempty"`
	Kind    Kind          `json:"kind"`
	Ctx     *SchedContext `json:"ctx"`
	VMSpace *VMSpace      `json:"vmspace,omitempty"`

	// Entry is the thread's execution routine. The core does not invoke it;
	// the machine emulation and the idle routine do.
	Entry func() `json:"-"`
}

// New creates a thread of the given kind with a fresh scheduling context.
func New(name string, kind Kind, affinity Affinity, priority int) *Thread {
	return &Thread{
		ID:   idgen.New(),
		Name: name,
		Kind: kind,
		Ctx:  NewSchedContext(affinity, priority),
	}
}

// Valid reports whether the thread reference is usable by the scheduling
// core, i.e. non-nil and initialised with a scheduling context.
func (t *Thread) Valid() bool {
	return t != nil && t.Ctx != nil
}

// String renders a one-line diagnostic summary, used in fault output when a
// consistency check trips.
func (t *Thread) String() string {
	if t == nil {
		return "thread(nil)"
	}
	if t.Ctx == nil {
		return fmt.Sprintf("thread(%s name=%q no ctx)", t.ID, t.Name)
	}
	return fmt.Sprintf("thread(%s name=%q kind=%s state=%s cpu=%d affinity=%d budget=%d)",
		t.ID, t.Name, t.Kind, t.Ctx.State, t.Ctx.CPU, t.Ctx.Affinity, t.Ctx.Budget)
}
