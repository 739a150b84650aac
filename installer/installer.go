// Package installer wraps container components that declare process-start
// methods in proxies carrying the process-start advice.
//
// An Installer is a container post-processor. Components whose type has
// no eligible method are returned untouched. Components that are already
// proxies get the advisor prepended, everything else is wrapped in a new
// proxy built from the installer's own proxy.Config.
package installer

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/xraph/startflow"
	"github.com/xraph/startflow/correlation"
	"github.com/xraph/startflow/interceptor"
	"github.com/xraph/startflow/matcher"
	"github.com/xraph/startflow/proxy"
)

// Emitter is notified when a component is proxied. An Emitter that also
// implements interceptor.Emitter receives process-start outcomes.
type Emitter interface {
	EmitObjectProxied(ctx context.Context, name string, target reflect.Type, methods []string)
}

// Installer installs the process-start advisor on eligible components.
type Installer struct {
	proxy.Config

	starter interceptor.Starter
	holder  *correlation.Holder
	matcher *matcher.Matcher
	advice  *interceptor.ProcessStarting
	advisor proxy.Advisor
	outer   []proxy.Interceptor
	extra   []proxy.Interceptor
	emitter Emitter
	logger  *slog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithMatcher sets the eligibility matcher, so explicit registrations
// made on it are honoured.
func WithMatcher(m *matcher.Matcher) Option {
	return func(i *Installer) { i.matcher = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// WithProxyConfig sets the configuration copied into every new proxy.
func WithProxyConfig(cfg proxy.Config) Option {
	return func(i *Installer) { i.CopyFrom(cfg) }
}

// WithEmitter sets the lifecycle emitter.
func WithEmitter(e Emitter) Option {
	return func(i *Installer) { i.emitter = e }
}

// WithInterceptors adds advice applied to every method of the proxies the
// installer creates, inside the process-start advice.
func WithInterceptors(ics ...proxy.Interceptor) Option {
	return func(i *Installer) { i.extra = append(i.extra, ics...) }
}

// WithOuterInterceptors adds advice applied around the process-start
// advice. A context it derives reaches both the target method and the
// process started after it, which makes it the place for scope and
// deadline advice.
func WithOuterInterceptors(ics ...proxy.Interceptor) Option {
	return func(i *Installer) { i.outer = append(i.outer, ics...) }
}

// New creates an Installer starting processes through starter and
// correlating them through holder.
func New(starter interceptor.Starter, holder *correlation.Holder, opts ...Option) *Installer {
	i := &Installer{
		starter: starter,
		holder:  holder,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.matcher == nil {
		i.matcher = matcher.New()
	}

	adviceOpts := []interceptor.Option{interceptor.WithLogger(i.logger)}
	if e, ok := i.emitter.(interceptor.Emitter); ok {
		adviceOpts = append(adviceOpts, interceptor.WithEmitter(e))
	}
	i.advice = interceptor.New(starter, holder, i.matcher, adviceOpts...)
	i.advisor = i.advice.Advisor()
	return i
}

// InfrastructureObject marks the installer as framework plumbing.
func (i *Installer) InfrastructureObject() {}

// Matcher returns the eligibility matcher.
func (i *Installer) Matcher() *matcher.Matcher { return i.matcher }

// Holder returns the correlation holder.
func (i *Installer) Holder() *correlation.Holder { return i.holder }

// Advisor returns the process-start advisor.
func (i *Installer) Advisor() proxy.Advisor { return i.advisor }

// AfterWiring checks that the installer has everything it needs. It joins
// one sentinel per missing dependency.
func (i *Installer) AfterWiring() error {
	var errs []error
	if i.holder == nil {
		errs = append(errs, startflow.ErrNoHolder)
	}
	if i.starter == nil {
		errs = append(errs, startflow.ErrNoStarter)
	}
	if i.advisor == nil {
		errs = append(errs, startflow.ErrNoAdvisor)
	}
	return errors.Join(errs...)
}

// BeforeInit returns obj unchanged.
func (i *Installer) BeforeInit(_ context.Context, obj any, _ string) (any, error) {
	return obj, nil
}

// AfterInit returns the object to register under name in place of obj.
func (i *Installer) AfterInit(ctx context.Context, obj any, name string) (any, error) {
	if obj == nil || i.advisor == nil {
		return obj, nil
	}
	if _, ok := obj.(proxy.Infrastructure); ok {
		return obj, nil
	}

	target := proxy.TargetType(obj)
	set := i.matcher.Eligible(target)
	if set.Len() == 0 {
		return obj, nil
	}

	if advised, ok := obj.(proxy.Advised); ok {
		advised.AddAdvisor(0, i.advisor)
		for j := len(i.outer) - 1; j >= 0; j-- {
			advised.AddAdvisor(0, proxy.NewAdvisor(nil, i.outer[j]))
		}
		i.proxied(ctx, name, target, set.Methods(), false)
		return obj, nil
	}

	var cfg proxy.Config
	cfg.CopyFrom(i.Config)

	advisors := make([]proxy.Advisor, 0, len(i.outer)+len(i.extra)+1)
	for _, ic := range i.outer {
		advisors = append(advisors, proxy.NewAdvisor(nil, ic))
	}
	advisors = append(advisors, i.advisor)
	for _, ic := range i.extra {
		advisors = append(advisors, proxy.NewAdvisor(nil, ic))
	}

	p := proxy.New(obj, cfg, advisors...)
	i.proxied(ctx, name, target, set.Methods(), true)
	return p, nil
}

func (i *Installer) proxied(ctx context.Context, name string, target reflect.Type, methods []string, created bool) {
	i.logger.Debug("process-start advice installed",
		slog.String("component", name),
		slog.String("type", target.String()),
		slog.Any("methods", methods),
		slog.Bool("new_proxy", created),
	)
	if i.emitter != nil {
		i.emitter.EmitObjectProxied(ctx, name, target, methods)
	}
}
