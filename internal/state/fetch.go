package state

// OrdersFetch identifies one order-list request, issued by BeginOrdersFetch.
type OrdersFetch struct {
	gen   uint64
	epoch uint64
}

// FetchOutcome says what to do with an order-list response.
type FetchOutcome int

const (
	// FetchCurrent responses replace Orders.
	FetchCurrent FetchOutcome = iota
	// FetchStale responses belong to the newest request but overlapped an
	// order write, so they may predate it.
	FetchStale
	// FetchSuperseded responses were overtaken by a newer request.
	FetchSuperseded
)

func (o FetchOutcome) String() string {
	switch o {
	case FetchCurrent:
		return "current"
	case FetchStale:
		return "stale"
	case FetchSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// BeginOrdersFetch marks the list as loading and returns the token of the
// new request. Earlier tokens stop being current.
func (s *State) BeginOrdersFetch() OrdersFetch {
	s.ordersFetchGen++
	s.OrdersLoading = true
	return OrdersFetch{gen: s.ordersFetchGen, epoch: s.ordersWriteEpoch}
}

// FinishOrdersFetch classifies the response of f. It does not touch
// OrdersLoading; only the caller handling the newest request clears it.
func (s *State) FinishOrdersFetch(f OrdersFetch) FetchOutcome {
	switch {
	case f.gen != s.ordersFetchGen:
		return FetchSuperseded
	case f.epoch != s.ordersWriteEpoch || s.ordersWritesPending > 0:
		return FetchStale
	default:
		return FetchCurrent
	}
}

func (s *State) beginOrdersWrite() {
	s.ordersWriteEpoch++
	s.ordersWritesPending++
}

func (s *State) endOrdersWrite() {
	s.ordersWriteEpoch++
	if s.ordersWritesPending > 0 {
		s.ordersWritesPending--
	}
}
