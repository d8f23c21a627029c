//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/surgecast/internal/bootstrap"
	"github.com/yanqian/surgecast/internal/domain/arearisk"
	"github.com/yanqian/surgecast/internal/domain/auth"
	"github.com/yanqian/surgecast/internal/domain/facility"
	"github.com/yanqian/surgecast/internal/domain/history"
	"github.com/yanqian/surgecast/internal/infra/config"
	"github.com/yanqian/surgecast/internal/infra/events"
	httpiface "github.com/yanqian/surgecast/internal/interface/http"
	"github.com/yanqian/surgecast/pkg/logger"
	"github.com/yanqian/surgecast/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewRegistry,
		provideFacilityConfig,
		provideAreaRiskConfig,
		provideHistoryConfig,
		provideAuthConfig,
		providePredictorSet,
		providePredictor,
		provideHistoryRepository,
		provideJobQueue,
		provideRecorder,
		provideHub,
		provideNotifier,
		provideOperatorDirectory,
		provideWorkers,
		history.NewService,
		facility.NewService,
		arearisk.NewService,
		auth.NewService,
		wire.Bind(new(httpiface.AlertStream), new(*events.Hub)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
