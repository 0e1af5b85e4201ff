package auth

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LimpezaRefresh remove periodicamente refresh tokens expirados ou revogados.
type LimpezaRefresh struct {
	DB         *gorm.DB
	Repository Repository
	Log        *zap.Logger
	Intervalo  time.Duration

	scheduler gocron.Scheduler
}

func NovaLimpezaRefresh(db *gorm.DB, log *zap.Logger, intervalo time.Duration) *LimpezaRefresh {
	return &LimpezaRefresh{DB: db, Repository: NewRepository(), Log: log, Intervalo: intervalo}
}

func (l *LimpezaRefresh) Executar() {
	n, err := l.Repository.LimparRefresh(l.DB, time.Now())
	if err != nil {
		l.Log.Error("limpeza de refresh tokens falhou", zap.Error(err))
		return
	}
	if n > 0 {
		l.Log.Info("refresh tokens removidos", zap.Int64("total", n))
	}
}

func (l *LimpezaRefresh) Iniciar() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(l.Intervalo),
		gocron.NewTask(l.Executar),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	l.scheduler = s
	s.Start()
	l.Log.Info("limpeza de refresh tokens agendada", zap.Duration("intervalo", l.Intervalo))
	return nil
}

func (l *LimpezaRefresh) Parar() error {
	if l.scheduler == nil {
		return nil
	}
	return l.scheduler.Shutdown()
}
