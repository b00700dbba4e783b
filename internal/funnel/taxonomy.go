package funnel

// Metric names one canonical funnel metric. The daily metrics view renames
// columns between releases; the alias table maps each canonical metric to
// its known column names in priority order, newest first, so fallback-key
// lists live in one place instead of every aggregation call site.
type Metric string

const (
	MetricLeads     Metric = "leads"
	MetricMeetings  Metric = "meetings"
	MetricContracts Metric = "contracts"
	MetricProtocols Metric = "protocols"

	MetricPendingBacklog       Metric = "pending_backlog"
	MetricSchedulingBacklog    Metric = "scheduling_backlog"
	MetricDocumentationBacklog Metric = "documentation_backlog"
	MetricProductionBacklog    Metric = "production_backlog"
	MetricFinanceBacklog       Metric = "finance_backlog"
)

var aliasTable = map[Metric][]string{
	MetricLeads:     {"total_leads_dia", "comercial_aguardando_analise", "aguardando_analise"},
	MetricMeetings:  {"n3_reuniao_feita", "comercial_reunioes_feitas", "reunioes_feitas"},
	MetricContracts: {"total_contratos_dia", "comercial_contratos_fechados", "contratos_fechados"},
	MetricProtocols: {"juridico_protocolados", "processos_protocolados"},

	MetricPendingBacklog:       {"comercial_pendentes_total", "clientes_pendentes_total"},
	MetricSchedulingBacklog:    {"posvenda_aguardando_agendamento", "n2_aguardando_agendamento", "aguardando_agendamento"},
	MetricDocumentationBacklog: {"posvenda_aguardando_documentacao", "n4_aguardando_documentacao", "aguardando_documentacao"},
	MetricProductionBacklog:    {"juridico_producao_inicial", "producao_inicial", "estoque_processos"},
	MetricFinanceBacklog:       {"financeiro_aguardando_atend", "financeiro_acordo_pendente", "pendente_financeiro"},
}

// Keys returns the ordered candidate column names for a canonical metric.
func Keys(m Metric) []string {
	aliases := aliasTable[m]
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}
