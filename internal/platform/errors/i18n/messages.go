package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeAlreadyPaid        = "ALREADY_PAID"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyBound       = "ALREADY_BOUND"
	CodeRemoteAlreadyUsed  = "REMOTE_ALREADY_USED"
	CodeRulingAlreadySet   = "RULING_ALREADY_SET"
	CodeRulingMissing      = "RULING_MISSING"
	CodeAlreadyExecuted    = "ALREADY_EXECUTED"
	CodeConfigMissing      = "CONFIG_MISSING"
	CodeRemoteMissing      = "REMOTE_MISSING"
	CodeAlreadyInitialized = "ALREADY_INITIALIZED"
	CodeExecutionPending   = "EXECUTION_PENDING"
	CodeJournalCorrupt     = "JOURNAL_CORRUPT"
)

var enUSMessages = map[Code]string{
	CodeUnauthorized:       "Caller is not authorized for {{.Operation}}",
	CodeInvalidInput:       "Invalid input: {{.Reason}}",
	CodeInvalidAmount:      "Payment must equal the required amount {{.Required}}",
	CodeAlreadyPaid:        "This party has already paid for dispute {{.DisputeID}}",
	CodeNotFound:           "The requested resource was not found",
	CodeAlreadyBound:       "Dispute {{.DisputeID}} is already bound to a remote dispute",
	CodeRemoteAlreadyUsed:  "Remote dispute {{.RemoteID}} is already bound",
	CodeRulingAlreadySet:   "A ruling was already recorded for dispute {{.DisputeID}}",
	CodeRulingMissing:      "No ruling has been recorded for dispute {{.DisputeID}}",
	CodeAlreadyExecuted:    "The ruling for dispute {{.DisputeID}} was already executed",
	CodeConfigMissing:      "The proxy has not been initialized",
	CodeRemoteMissing:      "Dispute {{.DisputeID}} has no remote dispute bound",
	CodeAlreadyInitialized: "The proxy is already initialized",
	CodeExecutionPending:   "Execution of dispute {{.DisputeID}} is already in progress",
	CodeJournalCorrupt:     "The event journal failed verification at sequence {{.Seq}}",
}

var ptBRMessages = map[Code]string{
	CodeUnauthorized:       "Chamador não autorizado para {{.Operation}}",
	CodeInvalidInput:       "Entrada inválida: {{.Reason}}",
	CodeInvalidAmount:      "O pagamento deve ser igual ao valor exigido {{.Required}}",
	CodeAlreadyPaid:        "Esta parte já pagou a disputa {{.DisputeID}}",
	CodeNotFound:           "O recurso solicitado não foi encontrado",
	CodeAlreadyBound:       "A disputa {{.DisputeID}} já está vinculada a uma disputa remota",
	CodeRemoteAlreadyUsed:  "A disputa remota {{.RemoteID}} já está vinculada",
	CodeRulingAlreadySet:   "Já existe uma decisão para a disputa {{.DisputeID}}",
	CodeRulingMissing:      "Nenhuma decisão registrada para a disputa {{.DisputeID}}",
	CodeAlreadyExecuted:    "A decisão da disputa {{.DisputeID}} já foi executada",
	CodeConfigMissing:      "O proxy ainda não foi inicializado",
	CodeRemoteMissing:      "A disputa {{.DisputeID}} não possui disputa remota vinculada",
	CodeAlreadyInitialized: "O proxy já foi inicializado",
	CodeExecutionPending:   "A execução da disputa {{.DisputeID}} já está em andamento",
	CodeJournalCorrupt:     "O diário de eventos falhou na verificação na sequência {{.Seq}}",
}
