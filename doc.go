/*
Package timbre allows to build and execute audio feature extraction networks.

Concept

Feature extraction is expressed as a directed graph of algorithms. Every
algorithm declares parameters, named inputs (sinks) and named outputs
(sources). Algorithms are created by name from a registry and wired together
with type-checked connections:

    Generator - algorithm without required inputs, the root of a network;
    Processor - algorithm that consumes tokens and produces new ones;
    Pool - aggregation store that collects named results.

Connections carry values of a closed set of types, identified by Type tags.
Connection of source and sink with different tags is rejected.

Execution

Network is executed in a single goroutine. Every step calls the generator once
and then every other algorithm in topological order if all its required
inputs have pending tokens. Execution stops when the generator is exhausted
and every buffer is drained.

Packages

    param    - parameter specs, constraints and validation;
    registry - name-based algorithm factory;
    stream   - streaming algorithm contract and connectors;
    network  - graph build, ordering and stepping;
    pool     - hierarchical descriptor storage;
    fft      - shared transform plan cache;
    session  - explicit lifetime of registries and transform subsystem;
    algo     - transforms, windowing, statistics and framing algorithms;
    audiofile - wav and aiff loader;
    recipe   - yaml descriptions of networks.

Command timbre runs recipes over audio files.
*/
package timbre
