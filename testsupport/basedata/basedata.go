package basedata

import (
	"context"
	"log"
	"time"

	"github.com/aarondl/opt/null"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/speedview-sync/pkg/model"
	bobRepos "github.com/mpapenbr/speedview-sync/pkg/repository/bob"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2023-09-16T13:03:35Z")
	return t
}

func SampleMeeting() *model.Meeting {
	return &model.Meeting{
		MeetingKey:       1219,
		MeetingName:      null.From("Singapore Grand Prix"),
		CircuitShortName: null.From("Singapore"),
		CountryCode:      null.From("SGP"),
		CountryName:      null.From("Singapore"),
		Year:             null.From(int32(2023)),
		DateStart:        null.From(TestTime()),
		GmtOffset:        null.From("08:00:00"),
	}
}

func SampleSession() *model.Session {
	return &model.Session{
		SessionKey:  9161,
		MeetingKey:  1219,
		SessionName: null.From("Race"),
		SessionType: null.From("Race"),
		DateStart:   null.From(TestTime()),
	}
}

func SampleDriver() *model.Driver {
	return &model.Driver{
		DriverNumber: 55,
		FirstName:    null.From("Carlos"),
		LastName:     null.From("Sainz"),
		NameAcronym:  null.From("SAI"),
		CountryCode:  null.From("ESP"),
	}
}

// CreateSampleSession stores meeting, session and driver of the samples
func CreateSampleSession(pool *pgxpool.Pool) *model.Session {
	ctx := context.Background()
	repos := bobRepos.NewRepositoriesFromPool(pool)
	tm := bobRepos.NewTransactionManagerFromPool(pool)
	sess := SampleSession()
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := repos.Meeting().Create(ctx, SampleMeeting()); err != nil {
			return err
		}
		if err := repos.Session().Create(ctx, sess); err != nil {
			return err
		}
		return repos.Driver().Create(ctx, SampleDriver())
	})
	if err != nil {
		log.Fatalf("createSampleSession: %v\n", err)
	}
	return sess
}
