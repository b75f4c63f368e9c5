package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

type realtimeSource struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRealtimeSource(client *firestore.Client) *realtimeSource {
	return &realtimeSource{client: client}
}

// Subscribe listens to query snapshots of the scoped cases query. The first
// snapshot is the current result set and is not reported as changes.
func (s *realtimeSource) Subscribe(ctx context.Context, scope model.Scope) (interfaces.ChangeStream, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	col := s.client.Collection(collectionName(s.collectionPrefix, model.CollectionCases))
	return &snapshotStream{
		ctx:  ctx,
		iter: scopedQuery(col, scope).Snapshots(ctx),
	}, nil
}

type snapshotStream struct {
	ctx      context.Context
	iter     *firestore.QuerySnapshotIterator
	baseline bool
	pending  []*model.ChangeEvent
}

func (s *snapshotStream) Next() (*model.ChangeEvent, error) {
	for len(s.pending) == 0 {
		snap, err := s.iter.Next()
		if err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, wrapErr(err, "case snapshot listener failed")
		}

		if !s.baseline {
			s.baseline = true
			continue
		}

		receivedAt := time.Now().UTC()
		for _, change := range snap.Changes {
			changeType, err := changeTypeOf(change.Kind)
			if err != nil {
				return nil, err
			}
			s.pending = append(s.pending, &model.ChangeEvent{
				Type:       changeType,
				Collection: model.CollectionCases,
				DocumentID: change.Doc.Ref.ID,
				ReceivedAt: receivedAt,
			})
		}
	}

	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *snapshotStream) Stop() {
	s.iter.Stop()
}

var errUnknownChangeKind = goerr.New("unknown document change kind")

func changeTypeOf(kind firestore.DocumentChangeKind) (types.ChangeType, error) {
	switch kind {
	case firestore.DocumentAdded:
		return types.ChangeInsert, nil
	case firestore.DocumentModified:
		return types.ChangeUpdate, nil
	case firestore.DocumentRemoved:
		return types.ChangeDelete, nil
	default:
		return "", goerr.Wrap(errUnknownChangeKind, "unexpected snapshot change", goerr.V("kind", int(kind)))
	}
}
