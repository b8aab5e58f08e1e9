package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/mindharbor/wellness-platform/internal/chat"
	"github.com/mindharbor/wellness-platform/internal/config"
	"github.com/mindharbor/wellness-platform/internal/db"
	"github.com/mindharbor/wellness-platform/internal/httpapi/handlers"
	"github.com/mindharbor/wellness-platform/internal/store/redisstore"
	amqp "github.com/rabbitmq/amqp091-go"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)
	repo := chat.NewRepo(gdb)

	// Provider registry (route by session.Provider + session.Model)
	reg := handlers.NewRegistry(cfg)
	svc := chat.NewService(repo, reg, cfg.ChatContextWindowSize)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	// Args must match the publisher's declaration exactly, or the
	// redeclare fails with PRECONDITION_FAILED.
	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	})
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	//  strict concurrency control
	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, cfg, svc, repo, rds, m.JobID); err != nil {
					log.Printf("worker=%d job %s failed cost=%s err=%v", workerID, m.JobID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

func handleJob(ctx context.Context, cfg config.Config, svc *chat.Service, repo *chat.Repo, rds *redisstore.Store, jobID string) error {
	_ = repo.UpdateJobStatusRunning(ctx, jobID)

	j, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	start := time.Now()
	_, assistantMsgID, err := svc.GenerateAssistantReplyAndInsert(ctx, j.UserID, j.SessionID)
	if err != nil {
		_ = repo.MarkJobFailed(ctx, jobID, err.Error())
		notifyDone(ctx, cfg, rds, j, string(chat.JobFailed), 0, err.Error())
		return err
	}

	if err := repo.MarkJobSucceeded(ctx, jobID, assistantMsgID); err != nil {
		return err
	}

	notifyDone(ctx, cfg, rds, j, string(chat.JobSucceeded), assistantMsgID, "")

	if cost := time.Since(start); cost > 2*time.Second {
		log.Printf("job_timing job=%s gen=%s", jobID, cost)
	}
	return nil
}

// notifyDone publishes the completion so the API server can push it over
// the user's websocket. Best-effort: the client can always poll the job.
func notifyDone(ctx context.Context, cfg config.Config, rds *redisstore.Store, j *chat.Job, status string, msgID uint64, errMsg string) {
	n := redisstore.JobDone{
		JobID:     j.ID,
		UserID:    j.UserID,
		SessionID: j.SessionID,
		Status:    status,
		MessageID: msgID,
		Error:     errMsg,
	}
	if err := rds.PublishJobDone(ctx, cfg.NotifyChannel, n); err != nil {
		log.Printf("notify job=%s: %v", j.ID, err)
	}
}
