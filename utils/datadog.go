package utils

import (
	"github.com/Luismorlan/mediamux/utils/dotenv"
	Logger "github.com/Luismorlan/mediamux/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// StartDatadog starts the Datadog tracer and profiler of a production
// service and returns the func stopping both. Outside production it does
// nothing.
func StartDatadog(service string) (stop func()) {
	if !dotenv.IsProdEnv() {
		return func() {}
	}
	tracer.Start(
		tracer.WithService(service),
		tracer.WithEnv(dotenv.ProdEnv),
	)
	if err := profiler.Start(
		profiler.WithService(service),
		profiler.WithEnv(dotenv.ProdEnv),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
		),
	); err != nil {
		Logger.Log.Error("fail to start profiler: ", err)
	}
	Logger.Log.Info("datadog tracer and profiler started")

	return func() {
		profiler.Stop()
		tracer.Stop()
	}
}
