package source

import (
	"time"

	"gantt2svg/pkg/plan"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

type sampleTask struct {
	id, name, start, end string
	progress             int
	responsible          string
}

func sampleStage(id string, name plan.StageName, tasks ...sampleTask) plan.Stage {
	s := plan.Stage{ID: id, Name: name, Order: name.Order(), Tasks: []plan.StageTask{}}
	for _, t := range tasks {
		s.Tasks = append(s.Tasks, plan.StageTask{
			ID:          t.id,
			Name:        t.name,
			StartDate:   plan.MustParseDate(t.start),
			EndDate:     plan.MustParseDate(t.end),
			Progress:    t.progress,
			Status:      plan.StatusForProgress(t.progress),
			Responsible: t.responsible,
		})
	}
	return s
}

// Sample returns the demonstration projects shown when no project source
// is configured. Each call returns fresh values.
func Sample() []plan.Project {
	now := nowUTC()
	return []plan.Project{
		{
			ID:          "proj-1",
			Name:        "Sistema de Planillas v2.0",
			Description: "Mejoras al sistema actual de planillas",
			StartDate:   plan.MustParseDate("2024-12-01"),
			EndDate:     plan.MustParseDate("2025-03-31"),
			CreatedAt:   now,
			UpdatedAt:   now,
			Stages: []plan.Stage{
				sampleStage("stage-1-1", plan.StageInception,
					sampleTask{"task-1-1-1", "Reunión kickoff", "2024-12-01", "2024-12-03", 100, "Paco"},
					sampleTask{"task-1-1-2", "Definición de alcance", "2024-12-04", "2024-12-08", 100, ""},
				),
				sampleStage("stage-1-2", plan.StagePlanning,
					sampleTask{"task-1-2-1", "Análisis de requerimientos", "2024-12-09", "2024-12-20", 80, "Paco"},
					sampleTask{"task-1-2-2", "Diseño de arquitectura", "2024-12-21", "2025-01-10", 30, ""},
				),
				sampleStage("stage-1-3", plan.StageExecution,
					sampleTask{"task-1-3-1", "Desarrollo backend", "2025-01-11", "2025-02-15", 0, ""},
					sampleTask{"task-1-3-2", "Desarrollo frontend", "2025-01-20", "2025-02-28", 0, ""},
				),
				sampleStage("stage-1-4", plan.StageMonitoring,
					sampleTask{"task-1-4-1", "Testing QA", "2025-03-01", "2025-03-15", 0, ""},
				),
				sampleStage("stage-1-5", plan.StageDelivery,
					sampleTask{"task-1-5-1", "Deploy producción", "2025-03-16", "2025-03-20", 0, ""},
					sampleTask{"task-1-5-2", "Capacitación usuarios", "2025-03-21", "2025-03-25", 0, ""},
				),
				sampleStage("stage-1-6", plan.StageClosure,
					sampleTask{"task-1-6-1", "Documentación final", "2025-03-26", "2025-03-28", 0, ""},
					sampleTask{"task-1-6-2", "Reunión de cierre", "2025-03-29", "2025-03-31", 0, ""},
				),
			},
		},
		{
			ID:          "proj-2",
			Name:        "Portal de Clientes Web",
			Description: "Desarrollo de portal para clientes mayoristas",
			StartDate:   plan.MustParseDate("2024-11-15"),
			EndDate:     plan.MustParseDate("2025-02-28"),
			CreatedAt:   now,
			UpdatedAt:   now,
			Stages: []plan.Stage{
				sampleStage("stage-2-1", plan.StageInception,
					sampleTask{"task-2-1-1", "Aprobación presupuesto", "2024-11-15", "2024-11-20", 100, ""},
				),
				sampleStage("stage-2-2", plan.StagePlanning,
					sampleTask{"task-2-2-1", "Wireframes y diseño", "2024-11-21", "2024-12-10", 100, ""},
				),
				sampleStage("stage-2-3", plan.StageExecution,
					sampleTask{"task-2-3-1", "Implementación UI", "2024-12-11", "2025-01-20", 60, ""},
					sampleTask{"task-2-3-2", "Integración APIs", "2025-01-05", "2025-01-31", 40, ""},
				),
				sampleStage("stage-2-4", plan.StageMonitoring,
					sampleTask{"task-2-4-1", "Pruebas beta", "2025-02-01", "2025-02-15", 0, ""},
				),
				sampleStage("stage-2-5", plan.StageDelivery,
					sampleTask{"task-2-5-1", "Lanzamiento", "2025-02-16", "2025-02-20", 0, ""},
				),
				sampleStage("stage-2-6", plan.StageClosure,
					sampleTask{"task-2-6-1", "Evaluación proyecto", "2025-02-21", "2025-02-28", 0, ""},
				),
			},
		},
		{
			ID:          "proj-3",
			Name:        "Automatización Inventarios",
			Description: "Sistema automatizado de gestión de inventarios",
			StartDate:   plan.MustParseDate("2025-01-01"),
			EndDate:     plan.MustParseDate("2025-04-30"),
			CreatedAt:   now,
			UpdatedAt:   now,
			Stages: []plan.Stage{
				sampleStage("stage-3-1", plan.StageInception,
					sampleTask{"task-3-1-1", "Estudios de viabilidad", "2025-01-01", "2025-01-15", 0, ""},
				),
				sampleStage("stage-3-2", plan.StagePlanning,
					sampleTask{"task-3-2-1", "Levantamiento procesos", "2025-01-16", "2025-02-05", 0, ""},
				),
				sampleStage("stage-3-3", plan.StageExecution,
					sampleTask{"task-3-3-1", "Desarrollo módulos", "2025-02-06", "2025-03-25", 0, ""},
				),
				sampleStage("stage-3-4", plan.StageMonitoring,
					sampleTask{"task-3-4-1", "Validación procesos", "2025-03-26", "2025-04-10", 0, ""},
				),
				sampleStage("stage-3-5", plan.StageDelivery,
					sampleTask{"task-3-5-1", "Migración datos", "2025-04-11", "2025-04-20", 0, ""},
				),
				sampleStage("stage-3-6", plan.StageClosure,
					sampleTask{"task-3-6-1", "Entrega documentación", "2025-04-21", "2025-04-30", 0, ""},
				),
			},
		},
	}
}
