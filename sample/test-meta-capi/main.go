package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xavierca1/quiz-funnel/internal/config"
	"github.com/xavierca1/quiz-funnel/internal/infra/integration/meta"
)

func main() {
	email := flag.String("email", "", "envia também um evento Lead para este email")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Aviso: arquivo .env não encontrado, usando variáveis de ambiente do sistema")
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// só a seção da Meta: o teste não precisa de banco
	metaCfg, err := config.LoadMeta()
	if err != nil {
		log.Fatalf("❌ Configuração inválida: %v", err)
	}
	if err := metaCfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	client := meta.NewClient(metaCfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Println("🔄 Enviando evento de teste para a Meta...")
	res, err := client.SendTestEvent(ctx)
	if err != nil {
		log.Fatalf("Erro ao enviar evento de teste: %v", err)
	}
	fmt.Printf(" Eventos recebidos: %d\n", res.Response.EventsReceived)
	fmt.Printf(" fbtrace_id: %s\n", res.Response.FBTraceID)

	if *email == "" {
		return
	}

	fmt.Printf("\n🔄 Enviando Lead para %s...\n", *email)
	lead, err := client.Send(ctx, meta.Event{
		Name:      meta.EventLead,
		User:      meta.UserData{Email: *email, ClientIP: "0.0.0.0", UserAgent: "test-meta-capi"},
		SourceURL: metaCfg.LeadSourceURL,
		Custom:    map[string]any{"content_name": metaCfg.LeadContentName, "content_type": "lead_form"},
	})
	if err != nil {
		log.Fatalf("Erro ao enviar Lead: %v", err)
	}
	fmt.Printf(" Event ID: %s\n", lead.EventID)
}
