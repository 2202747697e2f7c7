package chatclient

import "groupchat/internal/app/message"

// View mirrors the displayed message list: ids in append order plus the
// current record for each id.
type View struct {
	order []uint64
	byID  map[uint64]*message.Message
}

func NewView() *View {
	return &View{byID: make(map[uint64]*message.Message)}
}

// Replace discards the view and loads a full fetch in the given order.
func (v *View) Replace(all []*message.Message) {
	v.order = v.order[:0]
	v.byID = make(map[uint64]*message.Message, len(all))
	for _, m := range all {
		if _, seen := v.byID[m.ID]; seen {
			continue
		}
		v.order = append(v.order, m.ID)
		v.byID[m.ID] = m
	}
}

// Apply reconciles a delta batch and reports whether anything changed.
// Applying the same batch again is a no-op.
func (v *View) Apply(batch []message.ClassifiedMessage) bool {
	changed := false
	for i := range batch {
		row := batch[i].Message
		_, present := v.byID[row.ID]

		switch batch[i].Status {
		case message.StatusNew:
			if !present {
				v.order = append(v.order, row.ID)
				v.byID[row.ID] = &row
				changed = true
			}
		case message.StatusUpdated:
			if present && !sameRevision(v.byID[row.ID], &row) {
				v.byID[row.ID] = &row
				changed = true
			}
		case message.StatusDeleted:
			if present {
				v.remove(row.ID)
				changed = true
			}
		}
	}
	return changed
}

func (v *View) remove(id uint64) {
	delete(v.byID, id)
	for i, existing := range v.order {
		if existing == id {
			v.order = append(v.order[:i], v.order[i+1:]...)
			return
		}
	}
}

func sameRevision(a, b *message.Message) bool {
	return a.Content == b.Content && a.UpdatedAt.Equal(b.UpdatedAt)
}

// Messages returns the displayed list in order.
func (v *View) Messages() []*message.Message {
	out := make([]*message.Message, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.byID[id])
	}
	return out
}

func (v *View) Len() int {
	return len(v.order)
}

func (v *View) Get(id uint64) (*message.Message, bool) {
	m, ok := v.byID[id]
	return m, ok
}
