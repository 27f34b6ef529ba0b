package service

import (
	"learning_cloud_backend/internal/config"
	"sync"
	"time"
)

// QuizPolicy 可热更新的测验策略，配置文件变更后由 configwatcher 回调刷新
type QuizPolicy struct {
	mu  sync.RWMutex
	cfg config.QuizConfig
}

func NewQuizPolicy(cfg config.QuizConfig) *QuizPolicy {
	return &QuizPolicy{cfg: cfg}
}

func (p *QuizPolicy) Update(cfg config.QuizConfig) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
}

func (p *QuizPolicy) ImprovementThreshold() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.ImprovementThreshold
}

func (p *QuizPolicy) AnalyticsCacheTTL() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.AnalyticsCacheTTL()
}
